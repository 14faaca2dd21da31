//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package execution

// errorKey flags a recorded output as the structured form of a failure.
const errorKey = "_error"

// FailureOutput is the value recorded into the execution context for a
// failed node. Error-branch handlers read it like any other upstream
// output.
func FailureOutput(err error) map[string]any {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return map[string]any{
		errorKey:  true,
		"message": msg,
	}
}

// IsFailureOutput reports whether v is a failure record produced by
// FailureOutput.
func IsFailureOutput(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	flag, ok := m[errorKey].(bool)
	return ok && flag
}
