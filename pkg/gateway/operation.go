package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"time"
)

// LibraryName is reported as browser and device in Identify properties.
const LibraryName = "roulette"

// Kind is the variant of an Operation.
type Kind int

const (
	KindUnknown Kind = iota
	KindDispatch
	KindHeartbeat
	KindIdentify
	KindHello
	KindHeartbeatAck
)

func (k Kind) String() string {
	switch k {
	case KindDispatch:
		return "Dispatch"
	case KindHeartbeat:
		return "Heartbeat"
	case KindIdentify:
		return "Identify"
	case KindHello:
		return "Hello"
	case KindHeartbeatAck:
		return "HeartbeatAck"
	default:
		return "Unknown"
	}
}

// variant holds the structural rules of a Kind. Command variants are sent by
// the client and never carry a sequence number or an event name.
type variant struct {
	opcode  Opcode
	command bool
}

var variants = map[Kind]variant{
	KindDispatch:     {opcode: OpDispatch},
	KindHeartbeat:    {opcode: OpHeartbeat, command: true},
	KindIdentify:     {opcode: OpIdentify, command: true},
	KindHello:        {opcode: OpHello, command: true},
	KindHeartbeatAck: {opcode: OpHeartbeatAck},
}

// Opcodes without an entry here are rejected with UnknownOperationError.
var kindsByOpcode = map[Opcode]Kind{
	OpDispatch:     KindDispatch,
	OpHeartbeat:    KindHeartbeat,
	OpIdentify:     KindIdentify,
	OpHello:        KindHello,
	OpHeartbeatAck: KindHeartbeatAck,
}

// Opcode returns the opcode implied by the kind.
func (k Kind) Opcode() (Opcode, bool) {
	v, ok := variants[k]
	return v.opcode, ok
}

// IsCommand reports whether the kind is a client command.
func (k Kind) IsCommand() bool {
	return variants[k].command
}

// Operation is one typed gateway frame.
type Operation struct {
	Kind     Kind
	Op       Opcode
	Sequence *int64
	Event    EventName
	Data     any
}

type frame struct {
	Op *int            `json:"op"`
	D  json.RawMessage `json:"d"`
	S  *int64          `json:"s"`
	T  *string         `json:"t"`
}

type wireFrame struct {
	Op int     `json:"op"`
	D  any     `json:"d"`
	S  *int64  `json:"s"`
	T  *string `json:"t"`
}

// Parse decodes a received frame and resolves its variant from the opcode
// table. When cursor is not nil, it is advanced from the frame's sequence
// number before the frame is validated.
func Parse(raw []byte, cursor *Cursor) (*Operation, error) {
	op, err := decode(raw, cursor)
	if err != nil {
		return nil, err
	}

	kind, ok := kindsByOpcode[op.Op]
	if !ok {
		return nil, &UnknownOperationError{Op: op.Op}
	}
	op.Kind = kind

	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

// Expect decodes a received frame as the given kind. A frame whose opcode
// does not match the kind is an InvalidOperationError rather than being
// resolved through the opcode table.
func Expect(raw []byte, cursor *Cursor, kind Kind) (*Operation, error) {
	op, err := decode(raw, cursor)
	if err != nil {
		return nil, err
	}
	op.Kind = kind

	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

func decode(raw []byte, cursor *Cursor) (*Operation, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyOperation
	}

	var f *frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("malformed gateway frame: %w", err)
	}
	if f == nil {
		return nil, ErrEmptyOperation
	}

	if f.S != nil && cursor != nil {
		cursor.Observe(*f.S)
	}

	op := &Operation{Op: OpNone, Sequence: f.S}
	if f.Op != nil {
		op.Op = Opcode(*f.Op)
	}
	if f.T != nil {
		op.Event = EventName(*f.T)
	}

	if len(f.D) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(f.D))
		decoder.UseNumber()
		if err := decoder.Decode(&op.Data); err != nil {
			return nil, fmt.Errorf("malformed gateway payload: %w", err)
		}
	}

	return op, nil
}

// Validate checks the operation against the rules of its variant.
func (o *Operation) Validate() error {
	v, ok := variants[o.Kind]
	if !ok {
		return &UnknownOperationError{Op: o.Op}
	}

	if o.Op != v.opcode {
		return &InvalidOperationError{Op: o.Op, Expected: v.opcode}
	}

	if v.command {
		if o.Sequence != nil {
			return &InvalidOperationError{Op: o.Op, Expected: v.opcode, Reason: "command frames must not carry a sequence number"}
		}
		if o.Event != "" {
			return &InvalidOperationError{Op: o.Op, Expected: v.opcode, Reason: "command frames must not carry an event name"}
		}
	}

	return nil
}

// Build constructs an outbound operation of the given kind. The payload is
// deep-copied so the caller may keep using its own map.
func Build(kind Kind, data any) (*Operation, error) {
	v, ok := variants[kind]
	if !ok {
		return nil, fmt.Errorf("cannot build operation of kind %s", kind)
	}

	return &Operation{
		Kind: kind,
		Op:   v.opcode,
		Data: DeepCopy(data),
	}, nil
}

// NewHeartbeat builds a Heartbeat carrying the cursor's current value, or
// null when no sequence number has been seen yet.
func NewHeartbeat(cursor *Cursor) *Operation {
	var data any
	if cursor != nil {
		if seq, ok := cursor.Value(); ok {
			data = seq
		}
	}

	return &Operation{Kind: KindHeartbeat, Op: OpHeartbeat, Data: data}
}

// ConnectionProperties identify the client in the Identify command.
type ConnectionProperties struct {
	OS      string
	Browser string
	Device  string
}

// DefaultConnectionProperties reports the running OS and LibraryName.
func DefaultConnectionProperties() ConnectionProperties {
	return ConnectionProperties{
		OS:      runtime.GOOS,
		Browser: LibraryName,
		Device:  LibraryName,
	}
}

// NewIdentify builds the Identify command sent after Hello.
func NewIdentify(token string, intents Intent, properties ConnectionProperties) *Operation {
	return &Operation{
		Kind: KindIdentify,
		Op:   OpIdentify,
		Data: map[string]any{
			"token":   token,
			"intents": int(intents),
			"properties": map[string]any{
				"$os":      properties.OS,
				"$browser": properties.Browser,
				"$device":  properties.Device,
			},
		},
	}
}

// MarshalJSON encodes the operation as a wire frame.
func (o *Operation) MarshalJSON() ([]byte, error) {
	f := wireFrame{
		Op: int(o.Op),
		D:  o.Data,
		S:  o.Sequence,
	}
	if o.Event != "" {
		t := string(o.Event)
		f.T = &t
	}
	return json.Marshal(f)
}

// EventData returns the payload as a map, or an empty map when the payload
// is not a JSON object.
func (o *Operation) EventData() map[string]any {
	if data, ok := o.Data.(map[string]any); ok {
		return data
	}
	return map[string]any{}
}

// HeartbeatInterval reads heartbeat_interval (milliseconds) from a Hello.
func (o *Operation) HeartbeatInterval() time.Duration {
	ms, ok := AsInt64(o.EventData()["heartbeat_interval"])
	if !ok {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func (o *Operation) String() string {
	seq := "null"
	if o.Sequence != nil {
		seq = strconv.FormatInt(*o.Sequence, 10)
	}
	return fmt.Sprintf("%s(op=%d, s=%s, t=%q)", o.Kind, int(o.Op), seq, o.Event)
}

// AsInt64 converts a decoded JSON number to int64.
func AsInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// AsString returns a string field, or "" when the value is not a string.
func AsString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}
