package types

// Model represents a discoverable GGUF model on disk.
type Model struct {
	// Stable identifier: the file name relative to the models directory,
	// or the directory name for multi-file vision models.
	// example: qwen2.5-7b-instruct-q4_k_m.gguf
	ID string `json:"id" example:"qwen2.5-7b-instruct-q4_k_m.gguf"`
	// Human-friendly name derived from the identifier.
	// example: qwen2.5-7b-instruct-q4_k_m
	Name string `json:"name" example:"qwen2.5-7b-instruct-q4_k_m"`
	// Absolute path to the primary .gguf file.
	// example: /home/user/models/LLM/gguf/qwen2.5-7b-instruct-q4_k_m.gguf
	Path string `json:"path" example:"/home/user/models/LLM/gguf/qwen2.5-7b-instruct-q4_k_m.gguf"`
	// Absolute path to the mmproj projector for vision models.
	ProjPath string `json:"proj_path,omitempty"`
	// Size of the primary model file in bytes.
	// example: 4920000000
	SizeBytes int64 `json:"size_bytes" example:"4920000000"`
	// True when the model ships an mmproj projector and accepts images.
	// example: false
	Vision bool `json:"vision,omitempty" example:"false"`
}
