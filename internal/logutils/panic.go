package logutils

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/maruel/panicparse/stack"
	"github.com/rs/zerolog/log"
)

// PanicError is a panic recovered from a goroutine, carrying the stacktraces of
// all goroutines at the moment of the panic.
type PanicError struct {
	Reason string
	Stack  string

	GoroutineBuckets []*stack.Bucket
}

func (pe PanicError) Error() string {
	return pe.Reason
}

func (pe PanicError) Pretty() string {
	return fmt.Sprintf("%s\n\n%s", pe.Reason, pe.Stack)
}

// WrapRecover converts a value from recover() into PanicError. It returns nil if r is nil.
func WrapRecover(r interface{}) *PanicError {
	if r == nil {
		return nil
	}
	reason := fmt.Sprintf("panic: %v", r)

	dump := allStacks()
	c, err := stack.ParseDump(bytes.NewReader(dump), io.Discard, true)
	if err != nil || c == nil {
		log.Warn().Err(err).Msg("unable to parse panic stacktrace")
		return &PanicError{
			Reason: reason,
			Stack:  string(dump),
		}
	}

	// Find out similar goroutine traces and group them into buckets.
	buckets := stack.Aggregate(c.Goroutines, stack.AnyValue)
	return &PanicError{
		Reason:           reason,
		Stack:            prettyStack(buckets),
		GoroutineBuckets: buckets,
	}
}

func allStacks() []byte {
	buf := make([]byte, 4096)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

func prettyStack(buckets []*stack.Bucket) string {
	srcLen := 0
	for _, bucket := range buckets {
		for _, line := range bucket.Signature.Stack.Calls {
			if l := len(line.SrcLine()); l > srcLen {
				srcLen = l
			}
		}
	}

	var sb strings.Builder
	for i, bucket := range buckets {
		calls := bucket.Stack.Calls
		if i == 0 {
			// drop frames of the recovery itself
			for idx, line := range calls {
				if line.Func.Name() == "panic" {
					calls = calls[idx+1:]
					break
				}
			}
		} else {
			// dim text color
			sb.WriteString("\n\x1b[2m")
		}

		extra := ""
		if s := bucket.SleepString(); s != "" {
			extra += "[" + s + "]"
		}
		if bucket.Locked {
			extra += "[locked]"
		}
		if c := bucket.CreatedByString(false); c != "" {
			extra += "[created by " + c + "]"
		}
		fmt.Fprintf(&sb, "%s: %s %s\n", goroutineIDs(bucket.IDs), bucket.State, extra)

		for _, line := range calls {
			fmt.Fprintf(&sb, "    %-*s  %s(%s)\n", srcLen, line.SrcLine(), line.Func.PkgDotName(), &line.Args)
		}
		if bucket.Stack.Elided {
			sb.WriteString("    (...)\n")
		}
		if i != 0 {
			// reset text color
			sb.WriteString("\x1b[0m")
		}
	}
	return sb.String()
}

func goroutineIDs(ids []int) string {
	if len(ids) >= 3 {
		return fmt.Sprintf("Group of %d goroutines", len(ids))
	}
	ss := make([]string, len(ids))
	for i, id := range ids {
		ss[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(ss, ", ")
}
