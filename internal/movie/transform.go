package movie

import "github.com/go-gl/mathgl/mgl32"

// WorldTransform composes e's local transform with its parent chain.
func WorldTransform(e Entity) (mgl32.Vec3, mgl32.Quat) {
	pos, rot := e.Position(), e.Rotation()
	for p := e.Parent(); p != nil; p = p.Parent() {
		pr := p.Rotation()
		pos = pr.Rotate(pos).Add(p.Position())
		rot = pr.Mul(rot)
	}
	return pos, rot
}

// LocalToWorld maps a parent-relative position and rotation of e into
// world space. Without a parent it returns its inputs.
func LocalToWorld(e Entity, pos mgl32.Vec3, rot mgl32.Quat) (mgl32.Vec3, mgl32.Quat) {
	parent := e.Parent()
	if parent == nil {
		return pos, rot
	}
	ppos, prot := WorldTransform(parent)
	return prot.Rotate(pos).Add(ppos), prot.Mul(rot)
}

// WorldToLocal is the inverse of LocalToWorld.
func WorldToLocal(e Entity, pos mgl32.Vec3, rot mgl32.Quat) (mgl32.Vec3, mgl32.Quat) {
	parent := e.Parent()
	if parent == nil {
		return pos, rot
	}
	ppos, prot := WorldTransform(parent)
	inv := prot.Inverse()
	return inv.Rotate(pos.Sub(ppos)), inv.Mul(rot)
}
