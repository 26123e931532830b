package taskq

import "strings"

// Route — правило маршрутизации: префикс имени задачи → очередь.
type Route struct {
	Prefix string
	Queue  Queue
}

// Router — чистое отображение имени задачи в имя очереди.
//
// Выигрывает самый длинный совпавший префикс; при равной длине —
// объявленный раньше. Без совпадений — очередь по умолчанию.
// Состояния нет: назначение пересчитывается при каждом enqueue.
type Router struct {
	routes       []Route
	defaultQueue Queue
}

// NewRouter создаёт Router с заданной таблицей маршрутов.
func NewRouter(routes []Route, defaultQueue Queue) *Router {
	return &Router{routes: routes, defaultQueue: defaultQueue}
}

// DefaultRouter — маршрутизация paycore по топикам задач.
func DefaultRouter() *Router {
	return NewRouter([]Route{
		{Prefix: "payments.", Queue: QueuePayments},
		{Prefix: "fraud.", Queue: QueueFraud},
		{Prefix: "analytics.", Queue: QueueAnalytics},
		{Prefix: "notify.", Queue: QueueNotify},
	}, QueueDefault)
}

// AssignQueue возвращает очередь для имени задачи.
// Функция тотальна: любое имя отображается ровно в одну очередь.
func (r *Router) AssignQueue(taskName string) Queue {
	best := r.defaultQueue
	bestLen := -1

	for _, route := range r.routes {
		if !strings.HasPrefix(taskName, route.Prefix) {
			continue
		}
		// Строго длиннее: при равной длине остаётся объявленный раньше
		if len(route.Prefix) > bestLen {
			best = route.Queue
			bestLen = len(route.Prefix)
		}
	}

	return best
}

// Queues возвращает все очереди, в которые Router может направить задачу.
func (r *Router) Queues() []Queue {
	seen := map[Queue]bool{r.defaultQueue: true}
	out := []Queue{r.defaultQueue}

	for _, route := range r.routes {
		if !seen[route.Queue] {
			seen[route.Queue] = true
			out = append(out, route.Queue)
		}
	}
	return out
}
