package observability

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/tokengate-org/tokengate/types"
)

const ModuleKey attribute.Key = "compliance.module"
const CoreKey attribute.Key = "compliance.core"

func Module(name string) attribute.KeyValue {
	return ModuleKey.String(name)
}

func Core(id types.CoreID) attribute.KeyValue {
	return CoreKey.String(id.String())
}

func Round(round uint64) attribute.KeyValue {
	return attribute.Int64("round", int64(round)) /* #nosec G115 its unlikely that value of round exceeds int64 max value */
}

/*
ErrStatus returns attribute named "status" with value "ok" if the param
err is nil and "err" when it is not.
*/
func ErrStatus(err error) attribute.KeyValue {
	status := "ok"
	if err != nil {
		status = "err"
	}
	return attribute.String("status", status)
}

/*
Decision returns attribute named "decision" describing a check outcome,
"allow" or "deny".
*/
func Decision(approved bool) attribute.KeyValue {
	decision := "allow"
	if !approved {
		decision = "deny"
	}
	return attribute.String("decision", decision)
}

// ActionKind returns attribute naming the post-commit action variant.
func ActionKind(kind string) attribute.KeyValue {
	return attribute.String("action", kind)
}
