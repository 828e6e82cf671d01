// Package commands строит командные строки внешних инструментов по chemistry.
//
// Каждой chemistry соответствует ровно один Builder, зарегистрированный
// статически в Registry. Повторная регистрация — ошибка конфигурации,
// обнаруживаемая при старте, а не во время диспатча.
//
// Builders:
//   - tenx.go     — cellranger count, cellranger-atac count, spaceranger count
//   - seekgene.go — seeksoultools rna / vdj / fast
package commands
