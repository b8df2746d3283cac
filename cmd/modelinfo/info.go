package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Faultbox/terraview/internal/assets"
	"github.com/Faultbox/terraview/internal/loader"
	"github.com/Faultbox/terraview/pkg/bounds"
	"github.com/Faultbox/terraview/pkg/framing"
)

// Info is everything modelinfo reports about one model.
type Info struct {
	File      string     `json:"file"`
	Format    string     `json:"format"`
	Size      int        `json:"size"`
	Material  string     `json:"material,omitempty"`
	Nodes     int        `json:"nodes"`
	Meshes    int        `json:"meshes"`
	Vertices  int        `json:"vertices"`
	Triangles int        `json:"triangles"`
	Materials int        `json:"materials"`
	Bounds    BoxInfo    `json:"bounds"`
	Terrain   bool       `json:"terrain"`
	Camera    CameraInfo `json:"camera"`
}

// BoxInfo is the model's world-space bounding box.
type BoxInfo struct {
	Min      [3]float32 `json:"min"`
	Max      [3]float32 `json:"max"`
	Center   [3]float32 `json:"center"`
	Size     [3]float32 `json:"size"`
	Diagonal float32    `json:"diagonal"`
}

// CameraInfo is the camera placement computed for the model.
type CameraInfo struct {
	FOV         float32    `json:"fov"`
	Position    [3]float32 `json:"position"`
	LookAt      [3]float32 `json:"lookAt"`
	OrbitTarget [3]float32 `json:"orbitTarget"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(args[0], typeFlag, mtlFlag)
	if err != nil {
		return err
	}

	fetcher := assets.NewFetcher(assets.Options{Cache: true, UserAgent: "terraview-modelinfo"})
	info, err := inspect(cmd.Context(), fetcher, req, fovFlag)
	if err != nil {
		return err
	}

	if jsonFlag {
		return writeJSON(cmd.OutOrStdout(), info)
	}
	printInfo(cmd.OutOrStdout(), info)
	return nil
}

// buildRequest turns command-line arguments into a load request.
func buildRequest(model, kind, mtl string) (loader.Request, error) {
	req := loader.Request{ModelURL: model, MaterialURL: mtl}
	if kind != "" {
		k, err := loader.ParseKind(kind)
		if err != nil {
			return req, err
		}
		req.Kind = k
	} else {
		k, ok := loader.KindFromPath(model)
		if !ok {
			return req, fmt.Errorf("%w: cannot infer type of %q, use --type", loader.ErrUnsupportedKind, model)
		}
		req.Kind = k
	}

	if req.Kind == loader.KindOBJ && req.MaterialURL == "" {
		if path, ok := assets.LocalPath(model); ok {
			if found, ok := loader.FindMaterialFile(path); ok {
				req.MaterialURL = found
			}
		}
	}
	return req, nil
}

// inspect loads req and summarises it. The fetcher should cache, since the
// model bytes are read once for the size and again by the loader.
func inspect(ctx context.Context, fetcher *assets.Fetcher, req loader.Request, fov float32) (Info, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := fetcher.Fetch(ctx, req.ModelURL)
	if err != nil {
		return Info{}, err
	}

	st := loader.New(fetcher).LoadSync(ctx, req)
	if st.State != loader.StateReady {
		if st.Err != nil {
			return Info{}, fmt.Errorf("%s: %w", st.Message, st.Err)
		}
		return Info{}, errors.New(st.Message)
	}

	box := bounds.Compute(st.Model)
	sum := box.Summary()
	frame := framing.FrameBounds(sum, fov)
	stats := st.Model.Stats()

	return Info{
		File:      req.ModelURL,
		Format:    strings.ToUpper(string(req.Kind)),
		Size:      len(data),
		Material:  req.MaterialURL,
		Nodes:     stats.Nodes,
		Meshes:    stats.Meshes,
		Vertices:  stats.Vertices,
		Triangles: stats.Triangles,
		Materials: stats.Materials,
		Bounds: BoxInfo{
			Min:      box.Min.Array(),
			Max:      box.Max.Array(),
			Center:   sum.Center.Array(),
			Size:     sum.Size.Array(),
			Diagonal: sum.Diagonal,
		},
		Terrain: frame.Terrain,
		Camera: CameraInfo{
			FOV:         fov,
			Position:    frame.Position.Array(),
			LookAt:      frame.LookAt.Array(),
			OrbitTarget: frame.OrbitTarget.Array(),
		},
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printInfo(w io.Writer, info Info) {
	fmt.Fprintln(w, "Model Information")
	fmt.Fprintln(w, "=================")
	fmt.Fprintf(w, "File: %s\n", info.File)
	fmt.Fprintf(w, "Format: %s\n", info.Format)
	fmt.Fprintf(w, "Size: %s\n", formatFileSize(int64(info.Size)))
	if info.Material != "" {
		fmt.Fprintf(w, "Material: %s\n", info.Material)
	}

	fmt.Fprintln(w, "\nGeometry:")
	fmt.Fprintf(w, "  Nodes: %d\n", info.Nodes)
	fmt.Fprintf(w, "  Meshes: %d\n", info.Meshes)
	fmt.Fprintf(w, "  Vertices: %d\n", info.Vertices)
	fmt.Fprintf(w, "  Triangles: %d\n", info.Triangles)
	fmt.Fprintf(w, "  Materials: %d\n", info.Materials)

	fmt.Fprintln(w, "\nBounding Box:")
	fmt.Fprintf(w, "  Min: %s\n", formatVec(info.Bounds.Min))
	fmt.Fprintf(w, "  Max: %s\n", formatVec(info.Bounds.Max))
	fmt.Fprintf(w, "  Center: %s\n", formatVec(info.Bounds.Center))
	fmt.Fprintf(w, "  Size: %s\n", formatVec(info.Bounds.Size))
	fmt.Fprintf(w, "  Diagonal: %.3f\n", info.Bounds.Diagonal)

	kind := "object"
	if info.Terrain {
		kind = "terrain"
	}
	fmt.Fprintf(w, "\nCamera (%s, fov %g):\n", kind, info.Camera.FOV)
	fmt.Fprintf(w, "  Position: %s\n", formatVec(info.Camera.Position))
	fmt.Fprintf(w, "  Look at: %s\n", formatVec(info.Camera.LookAt))
	fmt.Fprintf(w, "  Orbit target: %s\n", formatVec(info.Camera.OrbitTarget))
}

func formatVec(v [3]float32) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
