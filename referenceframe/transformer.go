// Package referenceframe resolves poses expressed in arbitrary named frames
// into a controller's base frame.
package referenceframe

import (
	"context"

	"github.com/pkg/errors"

	"github.com/meca-lab/cartopt/spatialmath"
)

// Transformer re-expresses a pose from a named source frame into a named
// destination frame. Implementations are expected to fail with a
// FrameNotFoundError when the frame chain is unavailable.
type Transformer interface {
	TransformPose(ctx context.Context, pose spatialmath.Pose, src, dst string) (spatialmath.Pose, error)
}

// FrameNotFoundError is returned when a named frame cannot be resolved.
type FrameNotFoundError struct {
	Frame string
}

// NewFrameNotFoundError returns an error for a frame missing from a transformer.
func NewFrameNotFoundError(frame string) error {
	return &FrameNotFoundError{Frame: frame}
}

func (e *FrameNotFoundError) Error() string {
	return "reference frame \"" + e.Frame + "\" not found"
}

// StaticTransformer resolves frames against a fixed table of frame poses, all
// expressed in a common world frame.
type StaticTransformer struct {
	world  string
	frames map[string]spatialmath.Pose
}

// NewStaticTransformer returns a transformer over a fixed set of frames. The
// world frame itself is always resolvable with an identity transform.
func NewStaticTransformer(world string, frames map[string]spatialmath.Pose) *StaticTransformer {
	copied := make(map[string]spatialmath.Pose, len(frames))
	for name, pose := range frames {
		copied[name] = pose
	}
	return &StaticTransformer{world: world, frames: copied}
}

// TransformPose re-expresses pose from the src frame into the dst frame.
func (st *StaticTransformer) TransformPose(
	ctx context.Context,
	pose spatialmath.Pose,
	src, dst string,
) (spatialmath.Pose, error) {
	srcInWorld, err := st.poseInWorld(src)
	if err != nil {
		return spatialmath.Pose{}, err
	}
	dstInWorld, err := st.poseInWorld(dst)
	if err != nil {
		return spatialmath.Pose{}, err
	}
	inWorld := spatialmath.Compose(srcInWorld, pose)
	return spatialmath.Compose(dstInWorld.Invert(), inWorld), nil
}

func (st *StaticTransformer) poseInWorld(frame string) (spatialmath.Pose, error) {
	if frame == st.world {
		return spatialmath.NewZeroPose(), nil
	}
	pose, ok := st.frames[frame]
	if !ok {
		return spatialmath.Pose{}, errors.WithStack(NewFrameNotFoundError(frame))
	}
	return pose, nil
}
