package normalizer

import (
	"encoding/json"

	"wootrico/internal/normalize"
	"wootrico/internal/provider"
)

// uazapiPayload mirrors the Baileys-derived shape UAZAPI forwards:
// message.key carries routing/identity, message.message carries the
// one populated content variant.
type uazapiPayload struct {
	Owner   string `json:"owner"`
	ChatID  string `json:"chatid"`
	Message struct {
		Key struct {
			RemoteJid string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
			ID        string `json:"id"`
			Participant string `json:"participant"` // set only inside groups
		} `json:"key"`
		PushName string `json:"pushName"`

		Content struct {
			Conversation string `json:"conversation"`

			ImageMessage *uazapiMedia `json:"imageMessage"`
			VideoMessage *uazapiMedia `json:"videoMessage"`
			AudioMessage *uazapiMedia `json:"audioMessage"`
			DocumentMessage *uazapiMedia `json:"documentMessage"`
			StickerMessage  *uazapiMedia `json:"stickerMessage"`

			ExtendedTextMessage *struct {
				Text        string `json:"text"`
				ContextInfo struct {
					StanzaID string `json:"stanzaId"`
				} `json:"contextInfo"`
			} `json:"extendedTextMessage"`

			ProtocolMessage *struct {
				Type string `json:"type"`
				Key  struct {
					ID string `json:"id"`
				} `json:"key"`
				EditedMessage *struct {
					Conversation        string `json:"conversation"`
					ExtendedTextMessage *struct {
						Text string `json:"text"`
					} `json:"extendedTextMessage"`
				} `json:"editedMessage"`
			} `json:"protocolMessage"`
		} `json:"message"`
	} `json:"message"`
}

type uazapiMedia struct {
	Caption  string `json:"caption,omitempty"`
	MimeType string `json:"mimetype,omitempty"`
	MsgID    string `json:"-"`
}

func normalizeUAZAPI(raw []byte) (NormalizedEvent, error) {
	var p uazapiPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return NormalizedEvent{}, err
	}

	key := p.Message.Key
	content := p.Message.Content

	if content.ProtocolMessage != nil && content.ProtocolMessage.Type == "REVOKE" {
		return NormalizedEvent{
			Dialect:      provider.DialectUAZAPI,
			Kind:         KindDeleted,
			DeletedMsgID: content.ProtocolMessage.Key.ID,
			Sender:       key.RemoteJid,
			IsGroup:      normalize.IsGroupIdentifier(key.RemoteJid),
			FromMe:       key.FromMe,
		}, nil
	}

	sender := key.RemoteJid
	isGroup := normalize.IsGroupIdentifier(sender)
	if isGroup && key.Participant != "" {
		// inside a group the true author is the participant jid; the
		// conversation itself still keys on the group id.
		sender = key.RemoteJid
	}

	event := NormalizedEvent{
		Dialect:    provider.DialectUAZAPI,
		ProviderMsgID: key.ID,
		Sender:     sender,
		IsGroup:    isGroup,
		FromMe:     key.FromMe,
		SenderName: p.Message.PushName,
	}

	switch {
	case content.ProtocolMessage != nil && content.ProtocolMessage.Type == "MESSAGE_EDIT" && content.ProtocolMessage.EditedMessage != nil:
		edited := content.ProtocolMessage.EditedMessage
		event.Kind = KindText
		event.Text = edited.Conversation
		if edited.ExtendedTextMessage != nil {
			event.Text = edited.ExtendedTextMessage.Text
		}
		event.EditOf = content.ProtocolMessage.Key.ID
	case content.Conversation != "":
		event.Kind = KindText
		event.Text = content.Conversation
	case content.ExtendedTextMessage != nil:
		event.Kind = KindText
		event.Text = content.ExtendedTextMessage.Text
		event.ReplyToMsgID = content.ExtendedTextMessage.ContextInfo.StanzaID
	case content.ImageMessage != nil:
		event.Kind = KindImage
		event.Text = content.ImageMessage.Caption
		event.Attachment = &Attachment{Kind: "image", MimeType: content.ImageMessage.MimeType, ProviderMsgID: key.ID}
	case content.VideoMessage != nil:
		event.Kind = KindVideo
		event.Text = content.VideoMessage.Caption
		event.Attachment = &Attachment{Kind: "video", MimeType: content.VideoMessage.MimeType, ProviderMsgID: key.ID}
	case content.AudioMessage != nil:
		event.Kind = KindAudio
		event.Attachment = &Attachment{Kind: "audio", MimeType: content.AudioMessage.MimeType, ProviderMsgID: key.ID}
	case content.DocumentMessage != nil:
		event.Kind = KindDocument
		event.Text = content.DocumentMessage.Caption
		event.Attachment = &Attachment{Kind: "document", MimeType: content.DocumentMessage.MimeType, ProviderMsgID: key.ID}
	case content.StickerMessage != nil:
		event.Kind = KindSticker
		event.Attachment = &Attachment{Kind: "sticker", MimeType: content.StickerMessage.MimeType, ProviderMsgID: key.ID}
	default:
		event.Kind = KindSpecial
	}

	return event, nil
}
