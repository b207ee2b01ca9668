package track

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/go-gl/mathgl/mgl32"
)

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func setFloat(el *etree.Element, name string, v float32) {
	el.CreateAttr(name, formatFloat(v))
}

func setBool(el *etree.Element, name string, v bool) {
	if v {
		el.CreateAttr(name, "1")
		return
	}
	el.CreateAttr(name, "0")
}

// setString writes name only when v is non-empty.
func setString(el *etree.Element, name, v string) {
	if v != "" {
		el.CreateAttr(name, v)
	}
}

func setUint(el *etree.Element, name string, v uint64) {
	el.CreateAttr(name, strconv.FormatUint(v, 10))
}

func setVec3(el *etree.Element, name string, v mgl32.Vec3) {
	el.CreateAttr(name, strings.Join([]string{formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2])}, ","))
}

func setQuat(el *etree.Element, name string, q mgl32.Quat) {
	el.CreateAttr(name, strings.Join([]string{formatFloat(q.W), formatFloat(q.V[0]), formatFloat(q.V[1]), formatFloat(q.V[2])}, ","))
}

func floatAttr(el *etree.Element, name string, dflt float32) (float32, error) {
	a := el.SelectAttr(name)
	if a == nil {
		return dflt, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 32)
	if err != nil {
		return dflt, badAttr(name, a.Value, err)
	}
	return float32(v), nil
}

func boolAttr(el *etree.Element, name string, dflt bool) (bool, error) {
	a := el.SelectAttr(name)
	if a == nil {
		return dflt, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(a.Value))
	if err != nil {
		return dflt, badAttr(name, a.Value, err)
	}
	return v, nil
}

func uintAttr(el *etree.Element, name string, dflt uint64) (uint64, error) {
	a := el.SelectAttr(name)
	if a == nil {
		return dflt, nil
	}
	v, err := strconv.ParseUint(strings.TrimSpace(a.Value), 10, 64)
	if err != nil {
		return dflt, badAttr(name, a.Value, err)
	}
	return v, nil
}

func floatList(el *etree.Element, name string, n int) ([]float32, bool, error) {
	a := el.SelectAttr(name)
	if a == nil {
		return nil, false, nil
	}
	parts := strings.Split(a.Value, ",")
	if len(parts) != n {
		return nil, false, badAttr(name, a.Value, fmt.Errorf("want %d components, got %d", n, len(parts)))
	}
	out := make([]float32, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, false, badAttr(name, a.Value, err)
		}
		out[i] = float32(v)
	}
	return out, true, nil
}

func vec3Attr(el *etree.Element, name string, dflt mgl32.Vec3) (mgl32.Vec3, error) {
	vs, ok, err := floatList(el, name, 3)
	if err != nil || !ok {
		return dflt, err
	}
	return mgl32.Vec3{vs[0], vs[1], vs[2]}, nil
}

func quatAttr(el *etree.Element, name string, dflt mgl32.Quat) (mgl32.Quat, error) {
	vs, ok, err := floatList(el, name, 4)
	if err != nil || !ok {
		return dflt, err
	}
	return mgl32.Quat{W: vs[0], V: mgl32.Vec3{vs[1], vs[2], vs[3]}}, nil
}

// attrReader accumulates the first decode error so key decoders stay flat.
type attrReader struct {
	el  *etree.Element
	err error
}

func (r *attrReader) num(name string, dflt float32) float32 {
	v, err := floatAttr(r.el, name, dflt)
	r.keep(err)
	return v
}

func (r *attrReader) flag(name string, dflt bool) bool {
	v, err := boolAttr(r.el, name, dflt)
	r.keep(err)
	return v
}

func (r *attrReader) id(name string, dflt uint64) uint64 {
	v, err := uintAttr(r.el, name, dflt)
	r.keep(err)
	return v
}

func (r *attrReader) str(name string) string {
	return r.el.SelectAttrValue(name, "")
}

func (r *attrReader) vec3(name string, dflt mgl32.Vec3) mgl32.Vec3 {
	v, err := vec3Attr(r.el, name, dflt)
	r.keep(err)
	return v
}

func (r *attrReader) quat(name string, dflt mgl32.Quat) mgl32.Quat {
	v, err := quatAttr(r.el, name, dflt)
	r.keep(err)
	return v
}

func (r *attrReader) keep(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}
