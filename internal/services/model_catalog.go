package services

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var ErrNoJSON = errors.New("no JSON object found")

type modelDump struct {
	Data []struct {
		Id string `json:"id"`
	} `json:"data"`
}

// ParseModelDump extracts model ids from a saved /models response. Dumps
// redirected by some shells are UTF-16 and may carry text before the JSON.
func ParseModelDump(raw []byte) ([]string, error) {
	content, err := decodeDump(raw)
	if err != nil {
		return nil, err
	}
	start := strings.Index(content, "{")
	if start == -1 {
		return nil, ErrNoJSON
	}

	var dump modelDump
	if err := json.NewDecoder(strings.NewReader(content[start:])).Decode(&dump); err != nil {
		return nil, errors.Wrap(err, "decode model dump")
	}
	ids := make([]string, 0, len(dump.Data))
	for _, m := range dump.Data {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func decodeDump(raw []byte) (string, error) {
	if bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) || bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) || looksUTF16LE(raw) {
		out, _, err := transform.Bytes(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), raw)
		if err != nil {
			return "", errors.Wrap(err, "decode utf-16")
		}
		return string(out), nil
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	return strings.ToValidUTF8(string(raw), ""), nil
}

// ASCII text in UTF-16LE has a zero high byte in most code units.
func looksUTF16LE(raw []byte) bool {
	if len(raw) < 2 || len(raw)%2 != 0 {
		return false
	}
	zeros := 0
	for i := 1; i < len(raw); i += 2 {
		if raw[i] == 0 {
			zeros++
		}
	}
	return zeros*2 > len(raw)/2
}
