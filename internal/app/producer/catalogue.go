package producer

import (
	"path"

	"samplesmoke/internal/domain/execution"
)

const classificationSample = "classification_sample_async"

// DefaultSuites returns the built-in smoke suites for the asynchronous
// classification sample: squeezenet1.1 in FP32 and FP16 precision against the
// dog image, whose top-1 ImageNet class is 215.
func DefaultSuites() []execution.Suite {
	return []execution.Suite{
		classificationSuite("classification_sample_async_fp32", "caffe_squeezenet_v1_1_FP32_batch_1_seqlen_[1]_v10.xml"),
		classificationSuite("classification_sample_async_fp16", "caffe_squeezenet_v1_1_FP16_batch_1_seqlen_[1]_v10.xml"),
	}
}

func classificationSuite(name, model string) execution.Suite {
	return execution.Suite{
		Name:         name,
		Sample:       classificationSample,
		ExpectedTop1: "215",
		Params: execution.ParameterSet{
			{Name: "i", Values: []string{path.Join("227x227", "dog.bmp")}},
			{Name: "m", Values: []string{path.Join("squeezenet1.1", model)}},
			{Name: execution.VariantOption, Values: []string{"C++", "Python"}},
			{Name: "batch", Values: []string{"1", "2", "4"}},
			{Name: "d", Values: []string{"CPU"}},
		},
		DeviceKeys: []string{"d"},
	}
}
