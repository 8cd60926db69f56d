package types

// Server modes. A ServerConfig describes exactly one of them: single
// mode serves one model file, router mode serves a models directory
// with dynamic load/unload.
const (
	ModeSingle = "single"
	ModeRouter = "router"
)

// Defaults applied by API handlers and config normalization when the
// corresponding ServerConfig field is zero.
const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 8080
	DefaultContextSize = 4096
	// DefaultGPULayers offloads every layer; llama-server caps it at the
	// model's actual layer count.
	DefaultGPULayers = 999
	DefaultMaxModels = 4
)

// ServerConfig describes one llama-server launch. Two configs whose
// normalized forms are equal are interchangeable: a healthy server
// started from one satisfies a request for the other.
type ServerConfig struct {
	// Absolute path to the .gguf file to serve (single mode).
	// example: /home/user/models/LLM/gguf/tinyllama-q4.gguf
	ModelPath string `json:"model_path,omitempty" example:"/home/user/models/LLM/gguf/tinyllama-q4.gguf"`
	// Optional mmproj projector served alongside the model (vision).
	ProjPath string `json:"proj_path,omitempty"`
	// Serve ModelsDir with dynamic model load/unload instead of a single
	// model file.
	Router bool `json:"router,omitempty"`
	// Directory scanned for models (router mode).
	// example: /home/user/models/LLM/gguf
	ModelsDir string `json:"models_dir,omitempty" example:"/home/user/models/LLM/gguf"`
	// Bind host. Empty means 127.0.0.1.
	// example: 127.0.0.1
	Host string `json:"host,omitempty" example:"127.0.0.1"`
	// Bind port. Zero means 8080.
	// example: 8080
	Port int `json:"port,omitempty" example:"8080"`
	// Context window in tokens, applied to every loaded model. Zero
	// means 4096.
	// example: 4096
	ContextSize int `json:"context_size,omitempty" example:"4096"`
	// Layers offloaded to the GPU. 999 offloads everything, 0 keeps the
	// model on CPU.
	// example: 999
	GPULayers int `json:"gpu_layers" example:"999"`
	// Main GPU index for multi-GPU systems.
	// example: 0
	MainGPU int `json:"main_gpu,omitempty" example:"0"`
	// Optional VRAM split across GPUs, e.g. "3,1".
	TensorSplit string `json:"tensor_split,omitempty"`
	// CPU threads. Zero lets the server decide.
	Threads int `json:"threads,omitempty"`
	// Prompt processing batch size. Zero keeps the server default.
	// example: 512
	BatchSize int `json:"batch_size,omitempty" example:"512"`
	// Enable flash attention.
	FlashAttention bool `json:"flash_attention,omitempty"`
	// Disable mmap so the model is read into memory up front.
	NoMmap bool `json:"no_mmap,omitempty"`
	// Resident model cap before LRU eviction kicks in (router mode).
	// Zero means 4.
	// example: 4
	MaxModels int `json:"models_max,omitempty" example:"4"`
	// Load models on first use instead of requiring an explicit load
	// call (router mode). API handlers default this to true.
	Autoload bool `json:"models_autoload,omitempty"`
}

// Mode reports which launch mode the config describes.
func (c ServerConfig) Mode() string {
	if c.Router {
		return ModeRouter
	}
	return ModeSingle
}
