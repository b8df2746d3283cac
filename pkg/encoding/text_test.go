package encoding

import "testing"

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain utf8", []byte("o Cube"), "o Cube"},
		{"utf8 bom", []byte("\xEF\xBB\xBFo Cube"), "o Cube"},
		{"utf16le bom", []byte{0xFF, 0xFE, 'o', 0, ' ', 0, 'A', 0}, "o A"},
		{"windows-1252", []byte("newmtl Caf\xe9"), "newmtl Café"},
		{"trailing nulls", TrimNullBytes([]byte("v 1 2 3\x00\x00")), "v 1 2 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(DecodeText(tt.in)); got != tt.want {
				t.Errorf("DecodeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeAssetPath(t *testing.T) {
	tests := map[string]string{
		`textures\brick.png`:  "textures/brick.png",
		"./grass.jpg":         "grass.jpg",
		"  rock.tga ":         "rock.tga",
		"maps/sub/stone.png": "maps/sub/stone.png",
	}
	for in, want := range tests {
		if got := NormalizeAssetPath(in); got != want {
			t.Errorf("NormalizeAssetPath(%q) = %q, want %q", in, got, want)
		}
	}
}
