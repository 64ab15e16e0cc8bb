package mqtt

// statusRoot is the namespace for the controller's own retained status.
const statusRoot = "lampdirector/status"

// Topics builds the topics owned by the gateway itself. Device topics
// live in package topic.
//
//	lampdirector/status/{client_id}   retained online/offline status
type Topics struct{}

// Status returns the retained status topic for a client.
func (Topics) Status(clientID string) string {
	return statusRoot + "/" + clientID
}
