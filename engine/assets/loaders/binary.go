package loaders

import (
	"fmt"
	"io"
	"os"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic uint32 = 0x07230203

// BinaryLoader reads files as raw bytes.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// TextLoader reads files as UTF-8 text.
type TextLoader struct{}

func (tl *TextLoader) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SPIRVLoader reads compiled shader modules as 32 bit words, checking
// the SPIR-V magic number. Big endian modules are swapped to host order.
type SPIRVLoader struct{}

func (sl *SPIRVLoader) Load(path string) ([]uint32, error) {
	buf, err := (&BinaryLoader{}).Load(path)
	if err != nil {
		return nil, err
	}
	if len(buf) < 4 || len(buf)%4 != 0 {
		return nil, fmt.Errorf("%s: shader byte code size %d is not a multiple of 4", path, len(buf))
	}

	res := bytesToBytecode(buf)
	switch res[0] {
	case SPIRVMagic:
	case swapWord(SPIRVMagic):
		for i := range res {
			res[i] = swapWord(res[i])
		}
	default:
		return nil, fmt.Errorf("%s: not a SPIR-V module (magic 0x%08x)", path, res[0])
	}
	return res, nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}

func swapWord(w uint32) uint32 {
	return w>>24 | (w>>8)&0xff00 | (w<<8)&0xff0000 | w<<24
}
