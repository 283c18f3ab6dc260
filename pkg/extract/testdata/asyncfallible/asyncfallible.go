package asyncfallible

import "github.com/rebrowser/syncgen/pkg/runtime"

type JobImpl struct{}

func (j *JobImpl) Start() (runtime.Coroutine[int], error) { return nil, nil }
