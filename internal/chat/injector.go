package chat

import (
	"bytes"
	_ "embed"
	"encoding/json"

	"github.com/soar/chatpad/internal/input"
)

//go:embed injector.js
var injectorSource []byte

// InjectorScript returns the page-side script, wired to connect to bridgeURL.
func InjectorScript(bridgeURL string) []byte {
	out := bytes.Replace(injectorSource, []byte("__CHATPAD_BRIDGE__"), jsString(bridgeURL), 1)
	return bytes.Replace(out, []byte("__CHATPAD_KEYS__"), jsString(input.ForwardedKeys), 1)
}

func jsString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimSpace(buf.Bytes())
}
