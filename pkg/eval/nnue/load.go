package eval

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Weight container layout, little endian:
//
//	magic    [8]byte  "TINNQ01\x00"
//	version  uint32
//	inputDim uint32
//	hiddenDim uint32
//	outputDim uint32
//	w1Scale  float32
//	w2Scale  float32
//	w1       [inputDim*hiddenDim]int8   feature-major
//	b1       [hiddenDim]int16
//	w2       [hiddenDim]int8
//	b2       int16
var weightsMagic = [8]byte{'T', 'I', 'N', 'N', 'Q', '0', '1', 0}

const weightsVersion = 1

type weightsHeader struct {
	Magic     [8]byte
	Version   uint32
	InputDim  uint32
	HiddenDim uint32
	OutputDim uint32
	W1Scale   float32
	W2Scale   float32
}

func LoadWeights(f io.Reader) (*Weights, error) {
	var r = bufio.NewReader(f)

	var hdr weightsHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read weights header: %w", err)
	}
	if !bytes.Equal(hdr.Magic[:], weightsMagic[:]) {
		return nil, fmt.Errorf("bad weights magic %q", hdr.Magic)
	}
	if hdr.Version != weightsVersion {
		return nil, fmt.Errorf("unsupported weights version %d", hdr.Version)
	}
	if hdr.InputDim != InputSize || hdr.OutputDim != 1 {
		return nil, fmt.Errorf("unsupported topology %dx%dx%d",
			hdr.InputDim, hdr.HiddenDim, hdr.OutputDim)
	}
	if hdr.HiddenDim == 0 || hdr.HiddenDim > 4096 {
		return nil, fmt.Errorf("bad hidden size %d", hdr.HiddenDim)
	}
	if hdr.W1Scale <= 0 || hdr.W2Scale <= 0 {
		return nil, fmt.Errorf("bad quantization scales %v %v", hdr.W1Scale, hdr.W2Scale)
	}

	var hidden = int(hdr.HiddenDim)
	var w = &Weights{
		HiddenSize:    hidden,
		HiddenWeights: make([]int8, InputSize*hidden),
		HiddenBiases:  make([]int16, hidden),
		OutputWeights: make([]int8, hidden),
		HiddenScale:   hdr.W1Scale,
		OutputScale:   hdr.W2Scale,
	}

	if err := binary.Read(r, binary.LittleEndian, w.HiddenWeights); err != nil {
		return nil, fmt.Errorf("read hidden weights: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, w.HiddenBiases); err != nil {
		return nil, fmt.Errorf("read hidden biases: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, w.OutputWeights); err != nil {
		return nil, fmt.Errorf("read output weights: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &w.OutputBias); err != nil {
		return nil, fmt.Errorf("read output bias: %w", err)
	}

	return w, nil
}

// SaveWeights writes w in the container format LoadWeights reads.
func SaveWeights(f io.Writer, w *Weights) error {
	var bw = bufio.NewWriter(f)
	var hdr = weightsHeader{
		Magic:     weightsMagic,
		Version:   weightsVersion,
		InputDim:  InputSize,
		HiddenDim: uint32(w.HiddenSize),
		OutputDim: 1,
		W1Scale:   w.HiddenScale,
		W2Scale:   w.OutputScale,
	}
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, w.HiddenWeights); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, w.HiddenBiases); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, w.OutputWeights); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, w.OutputBias); err != nil {
		return err
	}
	return bw.Flush()
}
