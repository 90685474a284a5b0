package asynqserver

import (
	"github.com/joblo-ai/backend/internal/cache"
	"github.com/joblo-ai/backend/internal/config"
	"github.com/joblo-ai/backend/internal/queue/processor"
	"github.com/joblo-ai/backend/internal/queue/task"
	"github.com/joblo-ai/backend/internal/worker"

	"github.com/hibiken/asynq"
)

func New(cfg config.Cache, workers *worker.Workers) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(workers)
	srv := asynq.NewServer(
		RedisOptions(cfg),
		asynq.Config{
			Concurrency: 10,
			LogLevel:    asynq.ErrorLevel,
			Queues:      queues,
		},
	)

	return srv, mux
}

func RedisOptions(cfg config.Cache) asynq.RedisConnOpt {
	var opts asynq.RedisConnOpt
	if cfg.Type == cache.RedisTypeCluster {
		opts = asynq.RedisClusterClientOpt{Addrs: cfg.RedisCluster.Addresses}
	} else {
		opts = asynq.RedisClientOpt{Addr: cfg.Redis.Address}
	}
	return opts
}

func getQueues(workers *worker.Workers) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.SendEmailCodeTaskName, processor.NewSendEmailCodeProcessor(workers))
	mux.Handle(task.SendSMSCodeTaskName, processor.NewSendSMSCodeProcessor(workers))
	queues := map[string]int{
		task.SendEmailCodeQueueName: 1,
		task.SendSMSCodeQueueName:   1,
	}
	return mux, queues
}
