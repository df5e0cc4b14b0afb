package normalizer

import (
	"encoding/json"
	"strings"

	"wootrico/internal/normalize"
	"wootrico/internal/provider"
)

// wuzapiPayload mirrors a wuzapi server's webhook shape: an outer
// envelope naming the event type and an inner jsonData object carrying
// the Baileys Info/Message pair.
type wuzapiPayload struct {
	Event    string `json:"event"`
	Instance string `json:"instance"`
	JSONData struct {
		Info struct {
			ID          string `json:"Id"`
			Chat        string `json:"Chat"`
			Sender      string `json:"Sender"`
			IsFromMe    bool   `json:"IsFromMe"`
			IsGroup     bool   `json:"IsGroup"`
			PushName    string `json:"PushName"`
		} `json:"Info"`

		Message struct {
			Conversation string `json:"conversation"`

			ImageMessage    *wuzapiMedia `json:"imageMessage"`
			VideoMessage    *wuzapiMedia `json:"videoMessage"`
			AudioMessage    *wuzapiMedia `json:"audioMessage"`
			DocumentMessage *wuzapiMedia `json:"documentMessage"`
			StickerMessage  *wuzapiMedia `json:"stickerMessage"`
		} `json:"Message"`
	} `json:"jsonData"`
}

type wuzapiMedia struct {
	Caption    string `json:"caption,omitempty"`
	Mimetype   string `json:"mimetype,omitempty"`
	JPEGThumb  string `json:"jpegThumbnail,omitempty"`
	Base64Data string `json:"base64,omitempty"`
}

func normalizeWuzapi(raw []byte) (NormalizedEvent, error) {
	var p wuzapiPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return NormalizedEvent{}, err
	}

	if p.Event != "Message" {
		return NormalizedEvent{Dialect: provider.DialectWuzapi, Kind: KindSpecial}, nil
	}

	info := p.JSONData.Info
	msg := p.JSONData.Message

	event := NormalizedEvent{
		Dialect:    provider.DialectWuzapi,
		ProviderMsgID: info.ID,
		Sender:     info.Sender,
		IsGroup:    info.IsGroup || normalize.IsGroupIdentifier(info.Chat),
		FromMe:     info.IsFromMe,
		SenderName: info.PushName,
	}
	if event.IsGroup {
		event.Sender = info.Chat
	}

	switch {
	case msg.Conversation != "":
		event.Kind = KindText
		event.Text = msg.Conversation
	case msg.ImageMessage != nil:
		event.Kind = KindImage
		event.Text = msg.ImageMessage.Caption
		event.Attachment = &Attachment{Kind: "image", MimeType: msg.ImageMessage.Mimetype, Base64: wuzapiBase64(msg.ImageMessage.Base64Data)}
	case msg.VideoMessage != nil:
		event.Kind = KindVideo
		event.Text = msg.VideoMessage.Caption
		event.Attachment = &Attachment{Kind: "video", MimeType: msg.VideoMessage.Mimetype, Base64: wuzapiBase64(msg.VideoMessage.Base64Data)}
	case msg.AudioMessage != nil:
		event.Kind = KindAudio
		event.Attachment = &Attachment{Kind: "audio", MimeType: msg.AudioMessage.Mimetype, Base64: wuzapiBase64(msg.AudioMessage.Base64Data)}
	case msg.DocumentMessage != nil:
		event.Kind = KindDocument
		event.Text = msg.DocumentMessage.Caption
		event.Attachment = &Attachment{Kind: "document", MimeType: msg.DocumentMessage.Mimetype, Base64: wuzapiBase64(msg.DocumentMessage.Base64Data)}
	case msg.StickerMessage != nil:
		event.Kind = KindSticker
		event.Attachment = &Attachment{Kind: "sticker", MimeType: msg.StickerMessage.Mimetype, Base64: wuzapiBase64(msg.StickerMessage.Base64Data)}
	default:
		event.Kind = KindSpecial
	}

	return event, nil
}

// wuzapiBase64 corrects the URL-safe alphabet wuzapi's own base64
// encoder emits (- and _ in place of + and /) back to standard base64,
// strips the whitespace wuzapi sometimes wraps long payloads with, and
// pads the result to a multiple of 4 before it reaches the helpdesk's
// decoder.
func wuzapiBase64(s string) string {
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return s
}
