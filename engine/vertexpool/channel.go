package vertexpool

// Channel identifies one per-vertex attribute array in the pool.
type Channel int

const (
	// ChannelPosition is the world-space vertex position (vec3).
	ChannelPosition Channel = iota
	// ChannelNormal is the vertex normal (vec3).
	ChannelNormal
	// ChannelColor is the linear RGB color (vec3).
	ChannelColor
	// ChannelOpacity is the vertex opacity in [0, 1] (scalar).
	ChannelOpacity
	// ChannelShininess is the specular shininess in [0, 1] (scalar).
	ChannelShininess
	// ChannelEmissive is 1 for unlit vertices, 0 otherwise (scalar).
	ChannelEmissive
	// ChannelTexPos is the texture coordinate (vec2).
	ChannelTexPos
	// ChannelBumpAxis is the bump-map tangent (vec3).
	ChannelBumpAxis

	channelCount
)

// Channels lists every channel in upload order.
var Channels = [...]Channel{
	ChannelPosition, ChannelNormal, ChannelColor, ChannelOpacity,
	ChannelShininess, ChannelEmissive, ChannelTexPos, ChannelBumpAxis,
}

var channelWidths = [channelCount]int{3, 3, 3, 1, 1, 1, 2, 3}

var channelNames = [channelCount]string{
	"position", "normal", "color", "opacity", "shininess", "emissive", "texpos", "bumpaxis",
}

var channelDefaults = [channelCount][]float32{
	{0, 0, 0},
	{0, 0, 1},
	{1, 1, 1},
	{1},
	{0.6},
	{0},
	{0, 0},
	{1, 0, 0},
}

// Width returns the number of float32 components per vertex for the channel.
func (c Channel) Width() int {
	if c < 0 || c >= channelCount {
		return 0
	}
	return channelWidths[c]
}

// Default returns the value a newly allocated vertex holds in the channel.
func (c Channel) Default() []float32 {
	if c < 0 || c >= channelCount {
		return nil
	}
	return channelDefaults[c]
}

func (c Channel) String() string {
	if c < 0 || c >= channelCount {
		return "unknown"
	}
	return channelNames[c]
}
