// Package services — внешние коллабораторы ядра.
//
// Ядро (dispatcher, worker, bridge) не интерпретирует результаты этих
// сервисов — только пропагирует успех/ошибку. Tool/task-обработчики
// получают сервисы через ToolContext.
//
// In-memory реализации (memory.go) — фикстуры для разработки и тестов;
// production-реализации подключаются через те же интерфейсы.
package services
