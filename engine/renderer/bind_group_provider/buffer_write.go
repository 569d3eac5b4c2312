package bind_group_provider

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Fits reports whether the write lies inside the allocated buffer.
func (w BufferWrite) Fits() bool {
	if w.Provider == nil || w.Provider.Buffer(w.Binding) == nil {
		return false
	}
	return w.Offset+uint64(len(w.Data)) <= w.Provider.BufferSize(w.Binding)
}
