// Package formats provides parsers for the 3D asset formats the viewer loads.
//
// OBJ and MTL are parsed by hand into plain structures. glTF and GLB are
// decoded with github.com/qmuntal/gltf; converting any of them into
// renderable meshes is the job of internal/engine/model.
package formats
