// Package payload turns Bot API request payloads into HTTP request bodies.
//
// A payload is an ordered list of fields ([Fields]) whose values are
// [Value]s: null, booleans, numbers, strings, arrays, nested objects and
// files to upload ([inputfile.InputFile]). [NewRequest] inspects a payload
// with [RequiresFormDataUpload]. Payloads without files become a compact JSON
// document in which null object members are left out. Payloads with files are
// passed through [ExtractFiles], which returns a copy where every file is
// replaced by an "attach://<id>" reference, and then streamed as
// multipart/form-data by [EncodeMultipart].
//
// The multipart body is an iter.Seq2 of byte chunks produced on demand. File
// content is read only when the consumer asks for the next chunk, so a slow
// connection throttles disk reads and large files are never held in memory.
// Stopping the iteration, or closing the reader returned by
// [Request.Reader], releases any file that is open at the time.
//
// The multipart framing is fixed byte for byte:
//
//	--<boundary>\r\n
//	content-disposition:form-data;name="chat_id"\r\n\r\n1
//	\r\n--<boundary>\r\n
//	content-disposition:form-data;name="<id>";filename=photo.jpg\r\n\r\n<bytes>
//	\r\n--<boundary>--
package payload
