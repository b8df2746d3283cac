package model

import (
	"image"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func triangleDoc(mode gltf.PrimitiveMode, doubleSided bool) *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {2, 2, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 3})

	doc.Images = []*gltf.Image{{Name: "albedo"}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
	doc.Materials = []*gltf.Material{{
		Name:        "Paint",
		DoubleSided: doubleSided,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
		},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "Quad",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: pos},
			Indices:    gltf.Index(idx),
			Material:   gltf.Index(0),
			Mode:       mode,
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "Parent", Children: []int{1}, Translation: [3]float64{0, 3, 0}},
		{Name: "Child", Mesh: gltf.Index(0), Scale: [3]float64{1, 1, 1}, Rotation: [4]float64{0, 0, 0, 1}},
	}
	doc.Scenes[0].Nodes = []int{0}
	return doc
}

func TestBuildFromGLTF(t *testing.T) {
	tex := image.NewRGBA(image.Rect(0, 0, 2, 2))
	root, err := BuildFromGLTF(triangleDoc(gltf.PrimitiveTriangleStrip, true), map[int]image.Image{0: tex})
	if err != nil {
		t.Fatalf("BuildFromGLTF: %v", err)
	}

	if len(root.Children) != 1 || root.Children[0].Name != "Parent" {
		t.Fatalf("unexpected roots: %+v", root.Children)
	}
	parent := root.Children[0]
	if parent.Position.Y != 3 {
		t.Errorf("parent translation = %+v", parent.Position)
	}
	if len(parent.Children) != 1 || len(parent.Children[0].Meshes) != 1 {
		t.Fatal("child mesh missing")
	}

	mesh := parent.Children[0].Meshes[0]
	if mesh.TriangleCount() != 2 {
		t.Errorf("strip of 4 should give 2 triangles, got %d", mesh.TriangleCount())
	}
	// Odd strip triangles swap their first two corners.
	if mesh.Indices[3] != 2 || mesh.Indices[4] != 1 || mesh.Indices[5] != 3 {
		t.Errorf("second strip triangle = %v", mesh.Indices[3:6])
	}

	mat := mesh.Materials[0]
	if mat.Name != "Paint" || !mat.DoubleSided {
		t.Errorf("material = %+v", mat)
	}
	if mat.Diffuse != [3]float32{1, 1, 1} || mat.Opacity != 1 {
		t.Errorf("default base colour expected, got %v / %v", mat.Diffuse, mat.Opacity)
	}
	if mat.Texture != tex {
		t.Error("base colour texture not bound")
	}
	for _, v := range mesh.Vertices {
		if v.Normal != [3]float32{0, 0, 1} {
			t.Errorf("generated normal = %v, want +Z", v.Normal)
			break
		}
	}

	if s := root.Stats(); s.Triangles != 2 || s.Nodes != 3 {
		t.Errorf("stats = %+v", s)
	}
}

func TestBuildFromGLTF_KeepsSingleSided(t *testing.T) {
	root, err := BuildFromGLTF(triangleDoc(gltf.PrimitiveTriangles, false), nil)
	if err != nil {
		t.Fatalf("BuildFromGLTF: %v", err)
	}
	mats := root.Materials()
	if len(mats) != 1 || mats[0].DoubleSided {
		t.Errorf("materials = %+v", mats)
	}
	// Four indices as a list: the trailing partial triangle is dropped.
	if s := root.Stats(); s.Triangles != 1 {
		t.Errorf("expected 1 triangle, got %d", s.Triangles)
	}
}

func TestBuildFromGLTF_BadIndex(t *testing.T) {
	doc := triangleDoc(gltf.PrimitiveTriangles, false)
	doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION] = 42
	if _, err := BuildFromGLTF(doc, nil); err == nil {
		t.Error("expected error for missing accessor")
	}
}

func TestBuildFromGLTF_NoScene(t *testing.T) {
	doc := triangleDoc(gltf.PrimitiveTriangles, false)
	doc.Scenes = nil
	doc.Scene = nil
	root, err := BuildFromGLTF(doc, nil)
	if err != nil {
		t.Fatalf("BuildFromGLTF: %v", err)
	}
	if len(root.Children) != 1 || root.Children[0].Name != "Parent" {
		t.Errorf("expected only the parent as root, got %d roots", len(root.Children))
	}
}

func TestBuildFromGLTF_SceneIndexOutOfRange(t *testing.T) {
	for _, scene := range []int{-1, 5} {
		doc := triangleDoc(gltf.PrimitiveTriangles, false)
		doc.Scene = gltf.Index(scene)
		root, err := BuildFromGLTF(doc, nil)
		if err != nil {
			t.Fatalf("scene %d: BuildFromGLTF: %v", scene, err)
		}
		if len(root.Children) != 1 || root.Children[0].Name != "Parent" {
			t.Errorf("scene %d: expected the first scene's roots, got %d", scene, len(root.Children))
		}
	}
}
