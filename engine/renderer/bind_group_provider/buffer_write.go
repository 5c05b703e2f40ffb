package bind_group_provider

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// BufferWriter uploads staged buffer writes to the GPU.
type BufferWriter interface {
	// WriteBuffers submits every write whose provider has a buffer at the target binding.
	// Writes without a buffer are skipped.
	//
	// Parameters:
	//   - writes: the staged writes
	WriteBuffers(writes []BufferWrite)
}

// queueWriter is a BufferWriter backed by a wgpu queue.
type queueWriter struct {
	mu    sync.Mutex
	queue *wgpu.Queue
}

// NewQueueWriter wraps a wgpu queue as a BufferWriter.
//
// Parameters:
//   - queue: the device queue owned by the render collaborator
//
// Returns:
//   - BufferWriter: a writer submitting through queue
func NewQueueWriter(queue *wgpu.Queue) BufferWriter {
	return &queueWriter{queue: queue}
}

func (w *queueWriter) WriteBuffers(writes []BufferWrite) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, bw := range writes {
		if bw.Provider == nil {
			continue
		}
		buf := bw.Provider.Buffer(bw.Binding)
		if buf == nil {
			continue
		}
		w.queue.WriteBuffer(buf, bw.Offset, bw.Data)
	}
}
