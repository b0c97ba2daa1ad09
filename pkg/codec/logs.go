package codec

import (
	"fmt"

	"github.com/opensvm/svm/pkg/byteio"
)

// EncodeLogs serializes a sequence of log entries: count ‖ [len ‖ bytes]*.
func EncodeLogs(logs [][]byte) ([]byte, error) {
	if len(logs) > 0xffff {
		return nil, fmt.Errorf("codec: too many logs")
	}
	w := byteio.NewWriter()
	w.PutUint16(uint16(len(logs)))
	for _, entry := range logs {
		w.PutBytes(entry)
	}
	return w.Bytes(), nil
}

// DecodeLogsFrom decodes a log sequence from r, consuming exactly its
// framed bytes and leaving any trailing fields for the caller.
func DecodeLogsFrom(r *byteio.Reader) ([][]byte, error) {
	count, err := r.GetUint16("log_count")
	if err != nil {
		return nil, err
	}
	logs := make([][]byte, count)
	for i := range logs {
		entry, err := r.GetBytes("log_entry")
		if err != nil {
			return nil, err
		}
		logs[i] = entry
	}
	return logs, nil
}
