//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package execution

import "errors"

// ErrExecutionCanceled is reported when a run is stopped by its context
// before all nodes settle.
var ErrExecutionCanceled = errors.New("execution canceled")
