// OBJ (Wavefront geometry) parser.
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

// OBJ format errors.
var (
	ErrInvalidOBJ    = errors.New("invalid OBJ data")
	ErrOBJIndexRange = errors.New("OBJ face index out of range")
)

// OBJIndex references one face corner. Indices are zero-based; -1 means the
// attribute is absent.
type OBJIndex struct {
	V, VT, VN int
}

// OBJFace is a polygon with three or more corners.
type OBJFace struct {
	Corners  []OBJIndex
	Material string // Active usemtl name, empty for none
	Smooth   bool   // Smoothing group active ("s" other than off/0)
}

// OBJObject is a named run of faces started by an "o" or "g" statement.
type OBJObject struct {
	Name  string
	Faces []OBJFace
}

// OBJ represents a parsed Wavefront OBJ file.
type OBJ struct {
	Positions    [][3]float32
	TexCoords    [][2]float32
	Normals      [][3]float32
	MaterialLibs []string
	Objects      []OBJObject
}

// FaceCount returns the number of polygons across all objects.
func (o *OBJ) FaceCount() int {
	n := 0
	for i := range o.Objects {
		n += len(o.Objects[i].Faces)
	}
	return n
}

// ParseOBJ parses OBJ data from a byte slice.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{}
	p := objParser{obj: obj}

	scanner := bufio.NewScanner(bytes.NewReader(encoding.DecodeText(data)))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0
	var pending string
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		// Backslash continues a statement onto the next line.
		if strings.HasSuffix(line, "\\") {
			pending += strings.TrimSuffix(line, "\\") + " "
			continue
		}
		line = pending + line
		pending = ""

		if err := p.parseLine(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOBJ, err)
	}

	p.flush()
	return obj, nil
}

type objParser struct {
	obj      *OBJ
	current  *OBJObject
	material string
	smooth   bool
}

func (p *objParser) parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "v":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return fmt.Errorf("%w: vertex: %v", ErrInvalidOBJ, err)
		}
		p.obj.Positions = append(p.obj.Positions, [3]float32{v[0], v[1], v[2]})

	case "vt":
		v, err := parseFloats(fields[1:], 1)
		if err != nil {
			return fmt.Errorf("%w: texcoord: %v", ErrInvalidOBJ, err)
		}
		tc := [2]float32{v[0], 0}
		if len(v) > 1 {
			tc[1] = v[1]
		}
		p.obj.TexCoords = append(p.obj.TexCoords, tc)

	case "vn":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return fmt.Errorf("%w: normal: %v", ErrInvalidOBJ, err)
		}
		p.obj.Normals = append(p.obj.Normals, [3]float32{v[0], v[1], v[2]})

	case "f":
		return p.parseFace(fields[1:])

	case "o", "g":
		p.flush()
		name := strings.TrimSpace(strings.Join(fields[1:], " "))
		p.current = &OBJObject{Name: name}

	case "usemtl":
		p.material = strings.TrimSpace(strings.Join(fields[1:], " "))

	case "mtllib":
		for _, lib := range fields[1:] {
			p.obj.MaterialLibs = append(p.obj.MaterialLibs, encoding.NormalizeAssetPath(lib))
		}

	case "s":
		p.smooth = len(fields) > 1 && fields[1] != "off" && fields[1] != "0"

	default:
		// Lines, points, curves and unknown statements carry no surface geometry.
	}
	return nil
}

func (p *objParser) parseFace(corners []string) error {
	if len(corners) < 3 {
		return fmt.Errorf("%w: face needs at least 3 vertices, got %d", ErrInvalidOBJ, len(corners))
	}

	face := OBJFace{
		Corners:  make([]OBJIndex, 0, len(corners)),
		Material: p.material,
		Smooth:   p.smooth,
	}
	for _, c := range corners {
		idx, err := p.parseCorner(c)
		if err != nil {
			return err
		}
		face.Corners = append(face.Corners, idx)
	}

	if p.current == nil {
		p.current = &OBJObject{}
	}
	p.current.Faces = append(p.current.Faces, face)
	return nil
}

// parseCorner parses "v", "v/vt", "v//vn" or "v/vt/vn".
func (p *objParser) parseCorner(s string) (OBJIndex, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return OBJIndex{}, fmt.Errorf("%w: malformed face corner %q", ErrInvalidOBJ, s)
	}

	idx := OBJIndex{V: -1, VT: -1, VN: -1}
	var err error
	if idx.V, err = resolveIndex(parts[0], len(p.obj.Positions)); err != nil {
		return idx, err
	}
	if idx.V < 0 {
		return idx, fmt.Errorf("%w: face corner %q has no vertex", ErrInvalidOBJ, s)
	}
	if len(parts) > 1 {
		if idx.VT, err = resolveIndex(parts[1], len(p.obj.TexCoords)); err != nil {
			return idx, err
		}
	}
	if len(parts) > 2 {
		if idx.VN, err = resolveIndex(parts[2], len(p.obj.Normals)); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

// resolveIndex converts a one-based or negative (relative) OBJ index to a
// zero-based one. An empty string yields -1.
func resolveIndex(s string, count int) (int, error) {
	if s == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1, fmt.Errorf("%w: bad index %q", ErrInvalidOBJ, s)
	}

	var idx int
	switch {
	case n > 0:
		idx = n - 1
	case n < 0:
		idx = count + n
	default:
		return -1, fmt.Errorf("%w: index 0", ErrOBJIndexRange)
	}
	if idx < 0 || idx >= count {
		return -1, fmt.Errorf("%w: %d (have %d)", ErrOBJIndexRange, n, count)
	}
	return idx, nil
}

// flush appends the current object if it holds any faces.
func (p *objParser) flush() {
	if p.current != nil && len(p.current.Faces) > 0 {
		p.obj.Objects = append(p.obj.Objects, *p.current)
	}
	p.current = nil
}

func parseFloats(fields []string, minCount int) ([]float32, error) {
	if len(fields) < minCount {
		return nil, fmt.Errorf("expected %d values, got %d", minCount, len(fields))
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}
