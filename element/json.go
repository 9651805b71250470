package element

import (
	"encoding/json"
	"fmt"
)

// envelope is the wire form of an Element: common fields flat, variant
// payload under "props", discriminated by "kind".
type envelope struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	ZIndex   int             `json:"zIndex"`
	Opacity  float64         `json:"opacity"`
	Rotation float64         `json:"rotation"`
	Locked   bool            `json:"locked"`
	Visible  bool            `json:"visible"`
	Kind     Kind            `json:"kind"`
	Props    json.RawMessage `json:"props"`
}

// MarshalJSON implements json.Marshaler.
func (e Element) MarshalJSON() ([]byte, error) {
	if e.Props == nil {
		return nil, fmt.Errorf("%w: element %s has no props", ErrInvalid, e.ID)
	}
	props, err := json.Marshal(e.Props)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		ID:       e.ID,
		Name:     e.Name,
		X:        e.X,
		Y:        e.Y,
		Width:    e.Width,
		Height:   e.Height,
		ZIndex:   e.ZIndex,
		Opacity:  e.Opacity,
		Rotation: e.Rotation,
		Locked:   e.Locked,
		Visible:  e.Visible,
		Kind:     e.Props.Kind(),
		Props:    props,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Unknown kinds are an error:
// silently dropping a layer would corrupt history round-trips.
func (e *Element) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	var props Props
	var err error
	switch env.Kind {
	case KindGradient:
		var p Gradient
		err = json.Unmarshal(env.Props, &p)
		props = p
	case KindImage:
		var p Image
		err = json.Unmarshal(env.Props, &p)
		props = p
	case KindText:
		var p Text
		err = json.Unmarshal(env.Props, &p)
		props = p
	case KindSolid:
		var p Solid
		err = json.Unmarshal(env.Props, &p)
		props = p
	case KindRect:
		var p Rect
		err = json.Unmarshal(env.Props, &p)
		props = p
	case KindCircle:
		var p Circle
		err = json.Unmarshal(env.Props, &p)
		props = p
	case KindLine:
		var p Line
		err = json.Unmarshal(env.Props, &p)
		props = p
	default:
		return fmt.Errorf("%w: unknown element kind %q", ErrInvalid, env.Kind)
	}
	if err != nil {
		return err
	}
	*e = Element{
		ID:       env.ID,
		Name:     env.Name,
		X:        env.X,
		Y:        env.Y,
		Width:    env.Width,
		Height:   env.Height,
		ZIndex:   env.ZIndex,
		Opacity:  env.Opacity,
		Rotation: env.Rotation,
		Locked:   env.Locked,
		Visible:  env.Visible,
		Props:    props,
	}
	return nil
}
