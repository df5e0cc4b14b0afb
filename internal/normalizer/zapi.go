package normalizer

import (
	"encoding/json"

	"wootrico/internal/normalize"
	"wootrico/internal/provider"
)

type zapiPayload struct {
	InstanceID string `json:"instanceId"`
	Phone      string `json:"phone"`
	MessageID  string `json:"messageId"`
	Momment    int64  `json:"momment"`
	FromMe     bool   `json:"fromMe"`
	SenderName string `json:"senderName"`
	ChatName   string `json:"chatName"`
	IsGroup    bool   `json:"isGroup"`
	Photo      string `json:"photo"`
	Type       string `json:"type"`
	FromApi    bool   `json:"fromApi"`

	EditedMessageID string `json:"editedMessageId,omitempty"`

	Text *struct {
		Message string `json:"message"`
	} `json:"text"`

	Image *zapiMedia `json:"image"`
	Video *zapiMedia `json:"video"`
	Audio *zapiMedia `json:"audio"`
	Document *zapiMedia `json:"document"`
	Sticker  *zapiMedia `json:"sticker"`

	ReferenceMessageID string `json:"referenceMessageId"`

	Status string `json:"status"` // connection/delivery status pings
}

type zapiMedia struct {
	ImageURL    string `json:"imageUrl,omitempty"`
	VideoURL    string `json:"videoUrl,omitempty"`
	AudioURL    string `json:"audioUrl,omitempty"`
	DocumentURL string `json:"documentUrl,omitempty"`
	StickerURL  string `json:"stickerUrl,omitempty"`
	Caption     string `json:"caption,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

func (m *zapiMedia) url() string {
	switch {
	case m.ImageURL != "":
		return m.ImageURL
	case m.VideoURL != "":
		return m.VideoURL
	case m.AudioURL != "":
		return m.AudioURL
	case m.DocumentURL != "":
		return m.DocumentURL
	default:
		return m.StickerURL
	}
}

func normalizeZAPI(raw []byte) (NormalizedEvent, error) {
	var p zapiPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return NormalizedEvent{}, err
	}

	if p.MessageID == "" && p.Status != "" {
		return NormalizedEvent{Dialect: provider.DialectZAPI, Kind: KindSpecial}, nil
	}

	event := NormalizedEvent{
		Dialect:         provider.DialectZAPI,
		ProviderMsgID:   p.MessageID,
		ReplyToMsgID:    p.ReferenceMessageID,
		Sender:          p.Phone,
		IsGroup:         p.IsGroup || normalize.IsGroupIdentifier(p.Phone),
		FromMe:          p.FromMe,
		FromApi:         p.FromApi,
		SenderName:      firstNonEmpty(p.SenderName, p.ChatName),
		SenderAvatarURL: p.Photo,
	}

	switch {
	case p.EditedMessageID != "":
		event.Kind = KindText
		event.EditOf = p.EditedMessageID
		if p.Text != nil {
			event.Text = p.Text.Message
		}
	case p.Text != nil:
		event.Kind = KindText
		event.Text = p.Text.Message
	case p.Image != nil:
		event.Kind = KindImage
		event.Attachment = &Attachment{Kind: "image", URL: p.Image.url(), MimeType: p.Image.MimeType}
		event.Text = p.Image.Caption
	case p.Video != nil:
		event.Kind = KindVideo
		event.Attachment = &Attachment{Kind: "video", URL: p.Video.url(), MimeType: p.Video.MimeType}
		event.Text = p.Video.Caption
	case p.Audio != nil:
		event.Kind = KindAudio
		event.Attachment = &Attachment{Kind: "audio", URL: p.Audio.url(), MimeType: p.Audio.MimeType}
	case p.Document != nil:
		event.Kind = KindDocument
		event.Attachment = &Attachment{Kind: "document", URL: p.Document.url(), MimeType: p.Document.MimeType}
		event.Text = p.Document.Caption
	case p.Sticker != nil:
		event.Kind = KindSticker
		event.Attachment = &Attachment{Kind: "sticker", URL: p.Sticker.url()}
	default:
		event.Kind = KindSpecial
	}

	return event, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
