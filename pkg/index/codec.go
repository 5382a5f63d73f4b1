package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/korjavin/nutritrack/pkg/logger"
)

// blobHeaderSize is the fixed prefix of the vector blob:
// uint32 dimension followed by uint32 count, little-endian.
const blobHeaderSize = 8

// IntegrityError reports a persisted index that does not match its metadata
// or the live embedding provider. It signals that the index must be rebuilt
// from the source catalog; a partial repair is never attempted.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("index integrity violation: %s", e.Reason)
}

// Encode serializes the index into a vector blob and a metadata document.
// The two form one logical pair and must always be stored together.
func (idx *Index) Encode() (blob []byte, meta []byte, err error) {
	blob = make([]byte, blobHeaderSize, blobHeaderSize+len(idx.vectors)*idx.dimension*4)
	binary.LittleEndian.PutUint32(blob[0:4], uint32(idx.dimension))
	binary.LittleEndian.PutUint32(blob[4:8], uint32(len(idx.vectors)))

	var scratch [4]byte
	for _, vec := range idx.vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
			blob = append(blob, scratch[:]...)
		}
	}

	meta, err = json.Marshal(idx.meta)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal index metadata: %w", err)
	}
	return blob, meta, nil
}

// Load deserializes a persisted index pair and validates it: the vector count
// must equal the metadata count and the stored dimension must equal wantDim.
// Any mismatch returns an *IntegrityError so the caller can rebuild.
func Load(blob []byte, metaDoc []byte, wantDim int) (*Index, error) {
	if len(blob) < blobHeaderSize {
		return nil, &IntegrityError{Reason: "vector blob truncated"}
	}

	dimension := int(binary.LittleEndian.Uint32(blob[0:4]))
	count := int(binary.LittleEndian.Uint32(blob[4:8]))

	if dimension != wantDim {
		return nil, &IntegrityError{
			Reason: fmt.Sprintf("stored dimension %d does not match embedding dimension %d", dimension, wantDim),
		}
	}

	payload := blob[blobHeaderSize:]
	if len(payload) != count*dimension*4 {
		return nil, &IntegrityError{
			Reason: fmt.Sprintf("vector blob holds %d bytes, expected %d", len(payload), count*dimension*4),
		}
	}

	var meta []Meta
	if err := json.Unmarshal(metaDoc, &meta); err != nil {
		return nil, &IntegrityError{Reason: fmt.Sprintf("metadata unreadable: %v", err)}
	}

	if count != len(meta) {
		return nil, &IntegrityError{
			Reason: fmt.Sprintf("vector count %d does not match metadata count %d", count, len(meta)),
		}
	}

	vectors := make([][]float32, count)
	for i := 0; i < count; i++ {
		vec := make([]float32, dimension)
		for j := 0; j < dimension; j++ {
			off := (i*dimension + j) * 4
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
		}
		vectors[i] = vec
	}

	return &Index{
		dimension: dimension,
		vectors:   vectors,
		meta:      meta,
		logger:    logger.New("index"),
	}, nil
}
