package util

import (
	"github.com/RichardKnop/machinery/v1/tasks"
)

// CreateTaskSignatureForQueue builds a machinery task signature with
// string args, routed to the given queue.
func CreateTaskSignatureForQueue(taskName, queueName string,
	retryCount int, args ...string) *tasks.Signature {

	taskArgs := make([]tasks.Arg, 0, len(args))
	for _, arg := range args {
		taskArgs = append(taskArgs, tasks.Arg{
			Type:  "string",
			Value: arg,
		})
	}

	return &tasks.Signature{
		UUID:       "task_" + GetUUID(),
		Name:       taskName,
		RoutingKey: queueName, // queue to send.
		RetryCount: retryCount,
		Args:       taskArgs,
	}
}
