// npu.go - AI/ML execution unit (dense/conv forward pass) for the V5 core

package v5core

import (
	"fmt"
	"math"
)

// ------------------------------------------------------------------------------
// NPU Data Types
// ------------------------------------------------------------------------------

// Storage precisions are deliberately narrower than the accumulator:
// weights are 8-bit, activations 16-bit, and every dot-product accumulates
// in 32 bits, narrowing only at the final activation step.
type (
	Weight      = int8
	Activation  = int16
	Accumulator = int32
)

const (
	// ActivationMax/Min are the symmetric extremes of the 16-bit
	// activation domain used by the smooth activations.
	ActivationMax = 32767
	ActivationMin = -32767

	// activationClamp bounds sigmoid/tanh inputs in the fixed-point's
	// scaled domain; values beyond it saturate to the activation's
	// extreme output.
	activationClamp = 8

	// activationScale converts between the int16 storage format and the
	// float domain the smooth activations are computed in.
	activationScale = 32768.0
)

// ActivationKind selects the nonlinearity applied at the end of a layer.
type ActivationKind uint8

const (
	ActReLU ActivationKind = iota
	ActLeakyReLU
	ActSigmoid
	ActTanh
)

// ------------------------------------------------------------------------------
// Activation Functions
// ------------------------------------------------------------------------------

// ApplyActivation narrows a 32-bit accumulator into the 16-bit activation
// domain through the selected nonlinearity. ReLU and leaky-ReLU operate on
// the saturated fixed-point value; sigmoid and tanh are computed in
// floating point with the ±8 scaled-domain clamp.
func ApplyActivation(sum Accumulator, kind ActivationKind) Activation {
	switch kind {
	case ActReLU:
		if sum <= 0 {
			return 0
		}
		return saturateActivation(sum)
	case ActLeakyReLU:
		if sum <= 0 {
			return saturateActivation(sum / 10)
		}
		return saturateActivation(sum)
	case ActSigmoid:
		x := saturateActivation(sum)
		if x < -activationClamp {
			return 0
		}
		if x > activationClamp {
			return ActivationMax
		}
		fx := float64(x) / activationScale
		return Activation(1.0 / (1.0 + math.Exp(-fx)) * float64(ActivationMax))
	case ActTanh:
		x := saturateActivation(sum)
		if x < -activationClamp {
			return ActivationMin
		}
		if x > activationClamp {
			return ActivationMax
		}
		fx := float64(x) / activationScale
		return Activation(math.Tanh(fx) * float64(ActivationMax))
	default:
		return saturateActivation(sum)
	}
}

func saturateActivation(sum Accumulator) Activation {
	if sum > math.MaxInt16 {
		return math.MaxInt16
	}
	if sum < math.MinInt16 {
		return math.MinInt16
	}
	return Activation(sum)
}

// Softmax normalizes activations into a probability-like distribution,
// computed in the float domain and rescaled to the activation range.
func Softmax(in []Activation) []Activation {
	out := make([]Activation, len(in))
	if len(in) == 0 {
		return out
	}

	maxVal := in[0]
	for _, v := range in[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	exps := make([]float64, len(in))
	var sum float64
	for i, v := range in {
		exps[i] = math.Exp(float64(v-maxVal) / activationScale)
		sum += exps[i]
	}
	for i := range out {
		out[i] = Activation(exps[i] / sum * float64(ActivationMax))
	}
	return out
}

// ------------------------------------------------------------------------------
// Layers
// ------------------------------------------------------------------------------

// DenseLayer is a fully-connected layer. Weights are stored row-major by
// output neuron: Weights[j*InputSize+i] connects input i to output j.
type DenseLayer struct {
	InputSize  int
	OutputSize int
	Activation ActivationKind
	Weights    []Weight
	Biases     []Activation
}

// NewDenseLayer allocates a zero-weight dense layer. Invalid shapes fail
// construction as a whole.
func NewDenseLayer(inputSize, outputSize int, act ActivationKind) (*DenseLayer, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("dense layer %dx%d: %w", inputSize, outputSize, ErrResource)
	}
	return &DenseLayer{
		InputSize:  inputSize,
		OutputSize: outputSize,
		Activation: act,
		Weights:    make([]Weight, inputSize*outputSize),
		Biases:     make([]Activation, outputSize),
	}, nil
}

// Forward computes out[j] = act(sum_i in[i]*W[j][i] + bias[j]). All
// accumulation happens in the 32-bit accumulator type.
func (l *DenseLayer) Forward(input []Activation) ([]Activation, error) {
	if len(input) != l.InputSize {
		return nil, fmt.Errorf("dense forward: input %d, want %d: %w",
			len(input), l.InputSize, ErrInvalidOperation)
	}

	output := make([]Activation, l.OutputSize)
	for j := 0; j < l.OutputSize; j++ {
		var sum Accumulator
		row := l.Weights[j*l.InputSize : (j+1)*l.InputSize]
		for i, w := range row {
			sum += Accumulator(w) * Accumulator(input[i])
		}
		sum += Accumulator(l.Biases[j])
		output[j] = ApplyActivation(sum, l.Activation)
	}
	return output, nil
}

// Conv2DLayer is a valid-mode (no implicit padding) convolutional layer
// with a square kernel. Weights are indexed
// [((oc*InputChannels+ic)*KernelSize+kh)*KernelSize+kw]; one bias per
// output channel.
type Conv2DLayer struct {
	InputHeight    int
	InputWidth     int
	InputChannels  int
	OutputChannels int
	KernelSize     int
	Stride         int
	Activation     ActivationKind
	Weights        []Weight
	Biases         []Activation
}

// NewConv2DLayer allocates a zero-weight convolutional layer. The kernel
// must fit inside the input in valid mode.
func NewConv2DLayer(inputHeight, inputWidth, inputChannels, outputChannels,
	kernelSize, stride int, act ActivationKind) (*Conv2DLayer, error) {
	if inputHeight <= 0 || inputWidth <= 0 || inputChannels <= 0 ||
		outputChannels <= 0 || kernelSize <= 0 || stride <= 0 ||
		kernelSize > inputHeight || kernelSize > inputWidth {
		return nil, fmt.Errorf("conv2d layer %dx%dx%d k=%d s=%d: %w",
			inputHeight, inputWidth, inputChannels, kernelSize, stride, ErrResource)
	}
	wcount := kernelSize * kernelSize * inputChannels * outputChannels
	return &Conv2DLayer{
		InputHeight:    inputHeight,
		InputWidth:     inputWidth,
		InputChannels:  inputChannels,
		OutputChannels: outputChannels,
		KernelSize:     kernelSize,
		Stride:         stride,
		Activation:     act,
		Weights:        make([]Weight, wcount),
		Biases:         make([]Activation, outputChannels),
	}, nil
}

// OutputDims returns the valid-mode output height and width.
func (l *Conv2DLayer) OutputDims() (h, w int) {
	h = (l.InputHeight-l.KernelSize)/l.Stride + 1
	w = (l.InputWidth-l.KernelSize)/l.Stride + 1
	return h, w
}

// Forward computes the per-output-channel cross-correlation followed by
// bias-add and activation. Input layout is channel-major:
// input[(ic*H+y)*W+x]; output layout mirrors it with the output dims.
func (l *Conv2DLayer) Forward(input []Activation) ([]Activation, error) {
	if len(input) != l.InputHeight*l.InputWidth*l.InputChannels {
		return nil, fmt.Errorf("conv2d forward: input %d, want %d: %w",
			len(input), l.InputHeight*l.InputWidth*l.InputChannels, ErrInvalidOperation)
	}

	outH, outW := l.OutputDims()
	output := make([]Activation, outH*outW*l.OutputChannels)

	for oc := 0; oc < l.OutputChannels; oc++ {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				var sum Accumulator
				for ic := 0; ic < l.InputChannels; ic++ {
					for kh := 0; kh < l.KernelSize; kh++ {
						for kw := 0; kw < l.KernelSize; kw++ {
							iy := oy*l.Stride + kh
							ix := ox*l.Stride + kw
							in := input[(ic*l.InputHeight+iy)*l.InputWidth+ix]
							w := l.Weights[((oc*l.InputChannels+ic)*l.KernelSize+kh)*l.KernelSize+kw]
							sum += Accumulator(w) * Accumulator(in)
						}
					}
				}
				sum += Accumulator(l.Biases[oc])
				output[(oc*outH+oy)*outW+ox] = ApplyActivation(sum, l.Activation)
			}
		}
	}
	return output, nil
}

// ------------------------------------------------------------------------------
// NPU Unit
// ------------------------------------------------------------------------------

// npuLanes is the activation lane count of a vector register when an
// A-type instruction operates on architectural state: 64 bytes sliced as
// 32 little-endian int16 activations.
const npuLanes = VectorBytes / 2

// NPU is the AI/ML execution unit. Layer forward passes run against
// caller-owned layers; the A-type instructions operate on vector-register
// activations, with CONV running the layer currently bound to the unit.
type NPU struct {
	bound interface {
		Forward([]Activation) ([]Activation, error)
	}
	boundInput []Activation
	lastOutput []Activation
}

// BindLayer attaches a layer and its input buffer to the unit; a
// subsequent CONV instruction runs the forward pass.
func (n *NPU) BindLayer(layer interface {
	Forward([]Activation) ([]Activation, error)
}, input []Activation) {
	n.bound = layer
	n.boundInput = input
}

// LastOutput returns the output of the most recent CONV forward pass.
func (n *NPU) LastOutput() []Activation { return n.lastOutput }

func activationLanes(v *[VectorBytes]byte) [npuLanes]Activation {
	var out [npuLanes]Activation
	for i := range out {
		out[i] = Activation(uint16(v[i*2]) | uint16(v[i*2+1])<<8)
	}
	return out
}

func setActivationLanes(v *[VectorBytes]byte, lanes []Activation) {
	for i := 0; i < len(lanes) && i < npuLanes; i++ {
		v[i*2] = byte(lanes[i])
		v[i*2+1] = byte(uint16(lanes[i]) >> 8)
	}
}

// Execute dispatches one decoded A-type operation. RELU and SOFTMAX treat
// vector[rs1] as 32 int16 activation lanes and write back in place; CONV
// requires a bound layer.
func (n *NPU) Execute(rf *RegFile, op Op, ins Instruction) error {
	switch op {
	case OpRELU:
		vd := int(ins.Rs1()) % NumVectorRegs
		lanes := activationLanes(&rf.Vector[vd])
		for i, v := range lanes {
			lanes[i] = ApplyActivation(Accumulator(v), ActReLU)
		}
		setActivationLanes(&rf.Vector[vd], lanes[:])
		return nil

	case OpSOFTMAX:
		vd := int(ins.Rs1()) % NumVectorRegs
		lanes := activationLanes(&rf.Vector[vd])
		out := Softmax(lanes[:])
		setActivationLanes(&rf.Vector[vd], out)
		return nil

	case OpCONV:
		if n.bound == nil {
			return fmt.Errorf("CONV with no bound layer: %w", ErrInvalidOperation)
		}
		out, err := n.bound.Forward(n.boundInput)
		if err != nil {
			return err
		}
		n.lastOutput = out
		return nil

	default:
		return fmt.Errorf("NPU cannot execute %v: %w", op, ErrUnknownOperation)
	}
}
