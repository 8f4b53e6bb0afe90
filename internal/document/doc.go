// Package document — дерево документа (шаблона или результата печати).
//
// Документ не интерпретирует геометрию: он нужен только для подстановки
// токенов и чтения/записи служебных узлов (resume-метаданные, источник данных).
// Служебные узлы ищутся по локальному имени тега через индекс,
// который строится один раз при разборе.
package document
