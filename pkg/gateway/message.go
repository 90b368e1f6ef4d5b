package gateway

// User is the author of a message.
type User struct {
	ID   string
	Name string
}

// Mention returns the text used to address the user in a reply.
func (u User) Mention() string {
	return u.Name
}

// Responder sends a reply correlated to the operation that triggered it.
type Responder interface {
	RespondWith(text string, original *Operation)
}

// Message is a chat message extracted from a Dispatch operation.
type Message struct {
	ID        string
	Author    User
	Content   string
	Operation *Operation

	responder Responder
}

// NewMessage creates a message whose replies go through responder.
func NewMessage(id string, author User, content string, original *Operation, responder Responder) *Message {
	return &Message{
		ID:        id,
		Author:    author,
		Content:   content,
		Operation: original,
		responder: responder,
	}
}

// MessageFromOperation extracts the message carried by a Dispatch payload.
// It returns false when the payload has no author id.
func MessageFromOperation(op *Operation, responder Responder) (*Message, bool) {
	data := op.EventData()

	author, _ := data["author"].(map[string]any)
	user := User{
		ID:   AsString(author["id"]),
		Name: AsString(author["username"]),
	}
	if user.ID == "" {
		return nil, false
	}

	return NewMessage(AsString(data["id"]), user, AsString(data["content"]), op, responder), true
}

// Respond replies to the message. Delivery is asynchronous and failures are
// not reported to the caller.
func (m *Message) Respond(text string) {
	if m.responder == nil {
		return
	}
	m.responder.RespondWith(text, m.Operation)
}
