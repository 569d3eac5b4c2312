package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClass(t *testing.T) {
	tests := []struct {
		name string
		m    Material
		want Class
	}{
		{"plain", New(), ClassPlain},
		{"texture", New(WithTexture("wood.png")), ClassTexture},
		{"bump", New(WithBumpmap("rock.png")), ClassBump},
		{"both", New(WithTexture("wood.png"), WithBumpmap("rock.png")), ClassTextureBump},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Class())
		})
	}
}

func TestKeyIdentity(t *testing.T) {
	a := New(WithTexture("wood.png"))
	b := Material{Texture: "wood.png"}
	c := Material{Bumpmap: "wood.png"}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, []string{"wood.png"}, a.Names())
	assert.Empty(t, Material{}.Names())
}

func TestGPUMaterialParams(t *testing.T) {
	g := NewGPUMaterialParams(Material{Bumpmap: "b"})
	assert.Equal(t, [4]float32{0, 1, 0, 0}, g.Flags)
	assert.Equal(t, 16, g.Size())
	assert.Len(t, g.Marshal(), 16)
}
