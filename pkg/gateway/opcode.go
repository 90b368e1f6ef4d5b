package gateway

import (
	"fmt"
	"sort"
	"strings"
)

// Opcode tags the structural kind of a gateway frame.
type Opcode int

const (
	// OpNone is reported for frames that carry no opcode at all.
	OpNone              Opcode = -1
	OpDispatch          Opcode = 0
	OpHeartbeat         Opcode = 1
	OpIdentify          Opcode = 2
	OpPresence          Opcode = 3
	OpVoiceState        Opcode = 4
	OpVoicePing         Opcode = 5
	OpResume            Opcode = 6
	OpReconnect         Opcode = 7
	OpRequestMembers    Opcode = 8
	OpInvalidateSession Opcode = 9
	OpHello             Opcode = 10
	OpHeartbeatAck      Opcode = 11
	OpGuildSync         Opcode = 12
)

var opcodeNames = map[Opcode]string{
	OpNone:              "NONE",
	OpDispatch:          "DISPATCH",
	OpHeartbeat:         "HEARTBEAT",
	OpIdentify:          "IDENTIFY",
	OpPresence:          "PRESENCE",
	OpVoiceState:        "VOICE_STATE",
	OpVoicePing:         "VOICE_PING",
	OpResume:            "RESUME",
	OpReconnect:         "RECONNECT",
	OpRequestMembers:    "REQUEST_MEMBERS",
	OpInvalidateSession: "INVALIDATE_SESSION",
	OpHello:             "HELLO",
	OpHeartbeatAck:      "HEARTBEAT_ACK",
	OpGuildSync:         "GUILD_SYNC",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OPCODE(%d)", int(o))
}

// EventName is the "t" field of a Dispatch frame.
type EventName string

const (
	EventReady         EventName = "READY"
	EventMessageCreate EventName = "MESSAGE_CREATE"
)

// Intent is a bit in the capability mask sent with Identify.
type Intent int

const (
	IntentGuilds Intent = 1 << iota
	IntentGuildMembers
	IntentGuildBans
	IntentGuildEmojis
	IntentGuildIntegrations
	IntentGuildWebhooks
	IntentGuildInvites
	IntentGuildVoiceStates
	IntentGuildPresences
	IntentGuildMessages
	IntentGuildMessageReactions
	IntentGuildMessageTyping
	IntentDirectMessages
	IntentDirectMessageReactions
	IntentDirectMessageTyping
)

// DefaultIntents covers guild and direct messages plus their reactions.
const DefaultIntents = IntentGuildMessages | IntentGuildMessageReactions |
	IntentDirectMessages | IntentDirectMessageReactions

var intentNames = map[string]Intent{
	"Guilds":                 IntentGuilds,
	"GuildMembers":           IntentGuildMembers,
	"GuildBans":              IntentGuildBans,
	"GuildEmojis":            IntentGuildEmojis,
	"GuildIntegrations":      IntentGuildIntegrations,
	"GuildWebhooks":          IntentGuildWebhooks,
	"GuildInvites":           IntentGuildInvites,
	"GuildVoiceStates":       IntentGuildVoiceStates,
	"GuildPresences":         IntentGuildPresences,
	"GuildMessages":          IntentGuildMessages,
	"GuildMessageReactions":  IntentGuildMessageReactions,
	"GuildMessageTyping":     IntentGuildMessageTyping,
	"DirectMessages":         IntentDirectMessages,
	"DirectMessageReactions": IntentDirectMessageReactions,
	"DirectMessageTyping":    IntentDirectMessageTyping,
}

// ParseIntents combines intent names (case-insensitive) into a mask.
func ParseIntents(names ...string) (Intent, error) {
	var mask Intent
	for _, name := range names {
		found := false
		for known, intent := range intentNames {
			if strings.EqualFold(known, name) {
				mask |= intent
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown intent %q", name)
		}
	}
	return mask, nil
}

// Names returns the names of the intents set in the mask, sorted.
func (i Intent) Names() []string {
	names := make([]string, 0)
	for name, intent := range intentNames {
		if i&intent != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// MessageType is the "type" field of a channel message.
type MessageType int

const (
	MessageTypeDefault                                 MessageType = 0
	MessageTypeRecipientAdd                            MessageType = 1
	MessageTypeRecipientRemove                         MessageType = 2
	MessageTypeCall                                    MessageType = 3
	MessageTypeChannelNameChange                       MessageType = 4
	MessageTypeChannelIconChange                       MessageType = 5
	MessageTypeChannelPinnedMessage                    MessageType = 6
	MessageTypeGuildMemberJoin                         MessageType = 7
	MessageTypeUserPremiumGuildSubscription            MessageType = 8
	MessageTypeUserPremiumGuildSubscriptionTier1       MessageType = 9
	MessageTypeUserPremiumGuildSubscriptionTier2       MessageType = 10
	MessageTypeUserPremiumGuildSubscriptionTier3       MessageType = 11
	MessageTypeChannelFollowAdd                        MessageType = 12
	MessageTypeGuildDiscoveryDisqualified              MessageType = 14
	MessageTypeGuildDiscoveryRequalified               MessageType = 15
	MessageTypeGuildDiscoveryGracePeriodInitialWarning MessageType = 16
	MessageTypeGuildDiscoveryGracePeriodFinalWarning   MessageType = 17
	MessageTypeThreadCreated                           MessageType = 18
	MessageTypeReply                                   MessageType = 19
	MessageTypeApplicationCommand                      MessageType = 20
	MessageTypeThreadStarterMessage                    MessageType = 21
	MessageTypeGuildInviteReminder                     MessageType = 22
)
