package checksum

import "io"

// WriterWithChecksum feeds every byte accepted by Underlying into Calculator.
type WriterWithChecksum struct {
	Underlying io.Writer
	Calculator Calculator
}

func CreateWriterWithChecksum(underlying io.Writer, calculator Calculator) *WriterWithChecksum {
	return &WriterWithChecksum{Underlying: underlying, Calculator: calculator}
}

func (writer *WriterWithChecksum) Write(data []byte) (n int, err error) {
	n, err = writer.Underlying.Write(data)
	if n > 0 {
		if updateErr := writer.Calculator.Update(data[:n]); updateErr != nil && err == nil {
			err = updateErr
		}
	}
	return
}

func (writer *WriterWithChecksum) Close() error {
	if closer, ok := writer.Underlying.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
