package checksum

import "io"

// ReaderWithChecksum feeds every byte read from Underlying into Calculator.
type ReaderWithChecksum struct {
	Underlying io.Reader
	Calculator Calculator
}

func CreateReaderWithChecksum(underlying io.Reader, calculator Calculator) *ReaderWithChecksum {
	return &ReaderWithChecksum{Underlying: underlying, Calculator: calculator}
}

func (reader *ReaderWithChecksum) Read(data []byte) (n int, err error) {
	n, err = reader.Underlying.Read(data)
	if n > 0 {
		if updateErr := reader.Calculator.Update(data[:n]); updateErr != nil {
			return n, updateErr
		}
	}
	return
}
