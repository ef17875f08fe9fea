package service

import "fmt"

// SplitText splits text into overlapping fixed-size segments. Consecutive
// chunks share overlap runes and the final chunk may be shorter than size.
// Empty input yields no chunks, which the ingestion pipeline treats as
// "no indexable content". size must exceed overlap, overlap must be >= 0.
func SplitText(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || size <= overlap {
		return nil, fmt.Errorf("invalid chunking parameters: size=%d overlap=%d", size, overlap)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
