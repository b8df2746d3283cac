// MTL (Wavefront material library) parser.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/terraview/pkg/encoding"
)

// MTL format errors.
var (
	ErrInvalidMTL    = errors.New("invalid MTL data")
	ErrMTLNoMaterial = errors.New("MTL statement before newmtl")
)

// MTLMaterial is one "newmtl" block.
type MTLMaterial struct {
	Name      string
	Ambient   [3]float32 // Ka
	Diffuse   [3]float32 // Kd
	Specular  [3]float32 // Ks
	Emissive  [3]float32 // Ke
	Shininess float32    // Ns
	Opacity   float32    // d, or 1 - Tr
	Illum     int

	DiffuseMap string // map_Kd, normalised relative path
	BumpMap    string // map_bump / bump
	AlphaMap   string // map_d
}

// MTL represents a parsed material library.
type MTL struct {
	Materials []MTLMaterial
}

// Lookup returns the material with the given name.
func (m *MTL) Lookup(name string) (*MTLMaterial, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Materials {
		if m.Materials[i].Name == name {
			return &m.Materials[i], true
		}
	}
	return nil, false
}

// ParseMTL parses MTL data from a byte slice.
func ParseMTL(data []byte) (*MTL, error) {
	mtl := &MTL{}
	var current *MTLMaterial

	scanner := bufio.NewScanner(bytes.NewReader(encoding.DecodeText(data)))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		key := strings.ToLower(fields[0])
		if key == "newmtl" {
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: %w: newmtl without name", lineNo, ErrInvalidMTL)
			}
			mtl.Materials = append(mtl.Materials, MTLMaterial{
				Name:      strings.Join(fields[1:], " "),
				Diffuse:   [3]float32{1, 1, 1},
				Opacity:   1,
				Shininess: 30,
			})
			current = &mtl.Materials[len(mtl.Materials)-1]
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("line %d: %w: %s", lineNo, ErrMTLNoMaterial, fields[0])
		}
		if err := parseMTLStatement(current, key, fields[1:]); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMTL, err)
	}

	return mtl, nil
}

func parseMTLStatement(m *MTLMaterial, key string, args []string) error {
	var err error
	switch key {
	case "ka":
		m.Ambient, err = parseColor(args)
	case "kd":
		m.Diffuse, err = parseColor(args)
	case "ks":
		m.Specular, err = parseColor(args)
	case "ke":
		m.Emissive, err = parseColor(args)
	case "ns":
		m.Shininess, err = parseScalar(args)
	case "d":
		m.Opacity, err = parseScalar(args)
	case "tr":
		var tr float32
		tr, err = parseScalar(args)
		m.Opacity = 1 - tr
	case "illum":
		var v float32
		v, err = parseScalar(args)
		m.Illum = int(v)
	case "map_kd":
		m.DiffuseMap = mapPath(args)
	case "map_bump", "bump":
		m.BumpMap = mapPath(args)
	case "map_d":
		m.AlphaMap = mapPath(args)
	default:
		// Ni, Tf, map_Ks and other statements do not affect display.
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidMTL, key, err)
	}
	return nil
}

// parseColor accepts "r g b" or a single grey value.
func parseColor(args []string) ([3]float32, error) {
	v, err := parseFloats(args, 1)
	if err != nil {
		return [3]float32{}, err
	}
	if len(v) < 3 {
		return [3]float32{v[0], v[0], v[0]}, nil
	}
	return [3]float32{v[0], v[1], v[2]}, nil
}

func parseScalar(args []string) (float32, error) {
	if len(args) == 0 {
		return 0, errors.New("missing value")
	}
	v, err := strconv.ParseFloat(args[0], 32)
	return float32(v), err
}

// mapPath extracts the file name from a texture statement, skipping options
// such as "-bm 1.0" or "-s 1 1 1".
func mapPath(args []string) string {
	optionArgs := map[string]int{
		"-bm": 1, "-blendu": 1, "-blendv": 1, "-boost": 1, "-cc": 1, "-clamp": 1,
		"-imfchan": 1, "-texres": 1, "-mm": 2, "-o": 3, "-s": 3, "-t": 3,
	}
	i := 0
	for i < len(args) {
		n, ok := optionArgs[strings.ToLower(args[i])]
		if !ok {
			break
		}
		i += 1 + n
	}
	if i >= len(args) {
		return ""
	}
	return encoding.NormalizeAssetPath(strings.Join(args[i:], " "))
}
