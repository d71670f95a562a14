package chunker

// Chunk 单个文本窗口，[Start,End) 为全文中的 rune 偏移。
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

type Chunker struct {
	chunkSize int
	overlap   int
}

const (
	DefaultChunkSize = 800
	DefaultOverlap   = 120
)

// New 固定窗口切片器。overlap 必须小于 chunkSize，否则窗口无法前进。
func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split 固定长度滑动窗口：窗口长 chunkSize，步进 chunkSize-overlap，
// 末尾不足一个窗口的部分非空则保留。索引从 0 连续递增，
// 相同输入总是产出相同切片。
func (c *Chunker) Split(text string) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	advance := c.chunkSize - c.overlap
	var chunks []Chunk
	for start := 0; start < len(runes); start += advance {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
