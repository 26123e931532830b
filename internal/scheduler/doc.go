// Package scheduler ставит задачи в очередь по статическому расписанию.
//
// Расписание задаётся таблицей Entry при старте процесса: либо
// интервал (Every), либо cron-выражение (CronExpr). Каждое
// срабатывание создаёт ровно один work unit.
//
// Структура:
//   - scheduler.go — цикл тиков и постановка units в очередь
//   - cron.go      — валидация расписания и вычисление next due
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Entries:   scheduler.DefaultEntries(),
//	    Publisher: publisher,
//	    Logger:    logger,
//	})
//	if err != nil {
//	    return err
//	}
//	go sched.Run(ctx)
//
// Backfill не выполняется: после простоя entry срабатывает один раз,
// следующее время вычисляется от текущего момента.
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock.
package scheduler
