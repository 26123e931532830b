// Package worker выполняет work units из очередей задач.
//
// Worker потребляет units через taskq, резолвит имя задачи в общем
// tool registry и выполняет tool через execution bridge — тем же
// путём, что и синхронный RPC-вызов. Разница только в транспорте
// и в политике повторов.
//
// Жизненный цикл попытки:
//
//	PENDING → EXECUTING → SUCCEEDED
//	                    ↘ FAILED → retry (republish в хвост очереди)
//	                             ↘ DEAD_LETTERED (исчерпан бюджет
//	                               или non-retryable ошибка)
//
// Retry реализован через republish: worker выжидает exponential
// backoff и публикует unit с инкрементированным RetryCount обратно
// в его очередь. Порядок очереди для повторов не сохраняется.
//
// Dead letter фиксируется ровно один раз: запись в хранилище,
// публикация в DLQ, метрика и оповещение.
package worker
