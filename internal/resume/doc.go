// Package resume читает и пишет прогресс задания внутри документа.
//
// Прогресс хранится в единственном узле WCB с атрибутами:
//   - application — метка приложения, записавшего узел
//   - row         — последняя строка, печать которой была начата
//   - randseed    — случайное зерно, использованное для этой строки
//   - lastrow     — последняя строка задания (0 — до конца данных)
//   - halted      — "true", если строка остановлена устройством посреди печати
//   - checkpoint  — позиция, с которой plotter продолжит остановленную строку
//
// Узел с чужой меткой считается отсутствующим: такой документ
// никогда не используется как источник для resume.
package resume
