// Package bridge выполняет логически-асинхронные единицы работы
// до завершения внутри одного синхронного вызова worker'а.
//
// Каждый вызов Run получает собственный execution scope: scope
// создаётся перед выполнением и гарантированно освобождается на
// любом пути выхода (успех, ошибка, panic). Scope'ы никогда не
// разделяются между одновременными вызовами — это единица изоляции,
// исключающая гонки между вызовами by construction.
//
// Количество одновременных scope'ов можно ограничить (MaxScopes);
// исчерпание слотов — ошибка класса Bridge, retryable на уровне
// retry policy, но не внутри самого моста.
package bridge
