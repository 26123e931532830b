// Package domain содержит основные типы paycore.
//
// Типы:
//   - WorkUnit    — атомарная единица фоновой работы с retry-бюджетом
//   - UnitStatus  — state machine unit'а
//   - RetryPolicy — exponential backoff с jitter и потолком
//   - DeadLetter  — запись о unit, исчерпавшем попытки
//
// Пакет не зависит от транспорта и хранилища.
package domain
