package vision

import (
	"fmt"
	"sort"
)

// Defaults mirroring the trained model's export settings.
const (
	DefaultConfThreshold float32 = 0.25
	DefaultIoUThreshold  float32 = 0.45
)

// Detection is one post-NMS detection in original-image pixel coordinates.
type Detection struct {
	ClassID    int
	ClassName  string
	Confidence float32
	Box        Box
}

// OutputLayout describes the shape of the raw model output
// [1, 4+NumClasses, Anchors] flattened channel-planar.
type OutputLayout struct {
	NumClasses int
	Anchors    int
}

// AnchorCount returns the number of prediction rows a YOLO11 head emits for
// a square input of the given side (strides 8, 16 and 32).
func AnchorCount(inputSize int) int {
	s8 := inputSize / 8
	s16 := inputSize / 16
	s32 := inputSize / 32
	return s8*s8 + s16*s16 + s32*s32
}

// Len returns the expected flattened output length.
func (l OutputLayout) Len() int {
	return (4 + l.NumClasses) * l.Anchors
}

// Postprocess converts raw model output into detections: confidence filter,
// coordinate mapping back to the original image, then class-scoped greedy
// NMS. The result is deterministic for identical input and is sorted by
// confidence descending.
func Postprocess(raw []float32, layout OutputLayout, tf Transform, confThreshold, iouThreshold float32, classes []string) ([]Detection, error) {
	if layout.NumClasses < 1 || layout.Anchors < 1 {
		return nil, fmt.Errorf("invalid output layout %+v", layout)
	}
	if len(raw) != layout.Len() {
		return nil, fmt.Errorf("unexpected output length: got %d, want %d", len(raw), layout.Len())
	}

	n := layout.Anchors
	// Candidates grouped per class, in decode order. Early confidence
	// filtering keeps the O(k^2) suppression step small.
	perClass := make(map[int][]Detection)
	for i := 0; i < n; i++ {
		classID := 0
		conf := raw[4*n+i]
		for c := 1; c < layout.NumClasses; c++ {
			if s := raw[(4+c)*n+i]; s > conf {
				conf = s
				classID = c
			}
		}
		if conf < confThreshold {
			continue
		}
		cx := raw[i]
		cy := raw[n+i]
		halfW := raw[2*n+i] * 0.5
		halfH := raw[3*n+i] * 0.5
		box := tf.Apply(Box{X1: cx - halfW, Y1: cy - halfH, X2: cx + halfW, Y2: cy + halfH})
		perClass[classID] = append(perClass[classID], Detection{
			ClassID:    classID,
			ClassName:  className(classes, classID),
			Confidence: conf,
			Box:        box,
		})
	}

	out := make([]Detection, 0, 64)
	// Iterate classes in a fixed order for deterministic output.
	classIDs := make([]int, 0, len(perClass))
	for id := range perClass {
		classIDs = append(classIDs, id)
	}
	sort.Ints(classIDs)
	for _, id := range classIDs {
		out = append(out, nmsClass(perClass[id], iouThreshold)...)
	}

	// Present detections sorted by confidence descending. Stable sort keeps
	// the per-class deterministic order among equal confidences.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

// nmsClass runs greedy non-maximum suppression within one class group.
// Equal confidences keep decode order (stable sort), so the result is
// deterministic.
func nmsClass(cands []Detection, iouThreshold float32) []Detection {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Confidence > cands[j].Confidence
	})
	kept := make([]Detection, 0, len(cands))
	suppressed := make([]bool, len(cands))
	for i := range cands {
		if suppressed[i] {
			continue
		}
		kept = append(kept, cands[i])
		for j := i + 1; j < len(cands); j++ {
			if suppressed[j] {
				continue
			}
			if cands[i].Box.IOU(cands[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

func className(classes []string, id int) string {
	if id >= 0 && id < len(classes) {
		return classes[id]
	}
	return fmt.Sprintf("class_%d", id)
}
