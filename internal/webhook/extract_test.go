package webhook

import "testing"

func extract(t *testing.T, payload string) Message {
	t.Helper()
	msg, ok := Extract([]byte(payload))
	if !ok {
		t.Fatalf("Extract failed on %s", payload)
	}
	return msg
}

func TestExtractConversationText(t *testing.T) {
	msg := extract(t, `{
		"data": {
			"key": {"remoteJid": "5491100000000@s.whatsapp.net", "fromMe": false},
			"message": {"conversation": "  hola, quiero un turno  "}
		}
	}`)
	if msg.Conversation != "5491100000000@s.whatsapp.net" {
		t.Fatalf("conversation = %q", msg.Conversation)
	}
	if msg.Text != "hola, quiero un turno" {
		t.Fatalf("text = %q", msg.Text)
	}
	if msg.FromMe {
		t.Fatal("fromMe wrong")
	}
}

func TestExtractExtendedText(t *testing.T) {
	msg := extract(t, `{
		"key": {"remoteJid": "x@g.us"},
		"message": {"extendedTextMessage": {"text": "respuesta larga"}}
	}`)
	if msg.Text != "respuesta larga" {
		t.Fatalf("text = %q", msg.Text)
	}
}

func TestExtractCaptionBeatsPlaceholder(t *testing.T) {
	msg := extract(t, `{
		"key": {"remoteJid": "x"},
		"message": {"imageMessage": {"caption": "mirá esta foto"}}
	}`)
	if msg.Text != "mirá esta foto" {
		t.Fatalf("text = %q", msg.Text)
	}
}

func TestExtractMediaPlaceholder(t *testing.T) {
	msg := extract(t, `{
		"key": {"remoteJid": "x"},
		"message": {"imageMessage": {"mimetype": "image/jpeg"}}
	}`)
	if msg.Text != "[imagen]" {
		t.Fatalf("text = %q", msg.Text)
	}
}

func TestExtractDeletedMessage(t *testing.T) {
	msg := extract(t, `{
		"key": {"remoteJid": "x"},
		"message": {"protocolMessage": {"type": 0}}
	}`)
	if msg.Text != "[mensaje eliminado]" {
		t.Fatalf("text = %q", msg.Text)
	}
}

func TestExtractButtonsAndList(t *testing.T) {
	msg := extract(t, `{
		"key": {"remoteJid": "x"},
		"message": {"buttonsResponseMessage": {"selectedDisplayText": "Confirmar"}}
	}`)
	if msg.Text != "Confirmar" {
		t.Fatalf("text = %q", msg.Text)
	}

	msg = extract(t, `{
		"key": {"remoteJid": "x"},
		"message": {"listResponseMessage": {"title": "Opción 2"}}
	}`)
	if msg.Text != "Opción 2" {
		t.Fatalf("text = %q", msg.Text)
	}
}

func TestExtractNestedMessageWrappers(t *testing.T) {
	msg := extract(t, `{
		"key": {"remoteJid": "x"},
		"message": {"message": {"conversation": "doble envoltorio"}}
	}`)
	if msg.Text != "doble envoltorio" {
		t.Fatalf("text = %q", msg.Text)
	}
}

func TestExtractFromMe(t *testing.T) {
	msg := extract(t, `{
		"key": {"remoteJid": "x", "fromMe": true},
		"message": {"conversation": "yo mismo"}
	}`)
	if !msg.FromMe {
		t.Fatal("fromMe not detected")
	}
}

func TestExtractAlternateJidFields(t *testing.T) {
	msg := extract(t, `{"remoteJid": "alt@x", "message": {"conversation": "hola buenas"}}`)
	if msg.Conversation != "alt@x" {
		t.Fatalf("conversation = %q", msg.Conversation)
	}
	msg = extract(t, `{"chatId": "chat-9", "message": {"conversation": "hola buenas"}}`)
	if msg.Conversation != "chat-9" {
		t.Fatalf("conversation = %q", msg.Conversation)
	}
}

func TestExtractNoText(t *testing.T) {
	msg := extract(t, `{"key": {"remoteJid": "x"}, "message": {"reactionMessage": {"text": "👍"}}}`)
	if msg.Text != "" {
		t.Fatalf("unknown shape produced text %q", msg.Text)
	}
}

func TestExtractGarbage(t *testing.T) {
	if _, ok := Extract([]byte("not json")); ok {
		t.Fatal("garbage payload should not extract")
	}
}
