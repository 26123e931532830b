// Package batch — обработка однородных коллекций с ограниченным
// параллелизмом.
//
// Гарантии:
//   - не более MaxConcurrent одновременных worker-вызовов на весь вызов Run
//   - ошибка (или panic) одного элемента не влияет на остальные
//   - Processed + Failed == Total
//   - под-пачки ограничивают только память, не семантику
package batch
