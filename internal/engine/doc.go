// Package engine подставляет строки данных в документ-шаблон.
//
// Включает:
//   - template.go — построение общего шаблона токенов и однопроходная подстановка
//   - errors.go   — ошибки подстановки
//
// Все токены строки объединяются в одно регулярное выражение-альтернативу,
// которое применяется к сериализованному документу за один проход слева направо.
// Значение, совпадающее с текстом другого токена, повторно не подставляется.
package engine
